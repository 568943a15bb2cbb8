package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt"
)

type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeyPair reads both PEM files and checks that they belong together.
func LoadKeyPair(privatePath, publicPath string) (KeyPair, error) {
	priv, err := LoadPrivateKey(privatePath)
	if err != nil {
		return KeyPair{}, err
	}
	pub, err := LoadPublicKey(publicPath)
	if err != nil {
		return KeyPair{}, err
	}
	if !priv.PublicKey.Equal(pub) {
		return KeyPair{}, errors.New("jwt public key does not match private key")
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// LoadPrivateKey accepts PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") PEM.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an RSA key", path)
		}
		return rk, nil
	default:
		return nil, fmt.Errorf("%s: unexpected PEM type %q", path, block.Type)
	}
}

func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwt.ParseRSAPublicKeyFromPEM(b)
}

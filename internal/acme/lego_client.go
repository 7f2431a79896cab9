package acme

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

// Result is an issued certificate bundle
type Result struct {
	CertPem []byte
	KeyPem  []byte
}

// Obtainer issues certificates for a set of domains
type Obtainer interface {
	Obtain(domains []string) (*Result, error)
}

// User implements registration.User interface for lego
type User struct {
	Email        string
	Registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRegistration() *registration.Resource {
	return u.Registration
}

func (u *User) GetPrivateKey() crypto.PrivateKey {
	return u.key
}

// LegoClient obtains certificates with the HTTP-01 challenge, persisting
// the ACME account in a Store
type LegoClient struct {
	store        *Store
	email        string
	directoryURL string
	httpPort     string
}

// NewLegoClient creates a new lego client
func NewLegoClient(store *Store, email, directoryURL, httpPort string) *LegoClient {
	return &LegoClient{
		store:        store,
		email:        email,
		directoryURL: directoryURL,
		httpPort:     httpPort,
	}
}

// ensureUser loads the stored account or generates and registers a new one
func (c *LegoClient) ensureUser() (*User, *lego.Client, error) {
	keyPem, reg, err := c.store.LoadAccount()
	if err != nil {
		return nil, nil, err
	}

	var privateKey crypto.PrivateKey
	if keyPem != "" {
		privateKey, err = parsePrivateKey(keyPem)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse account key: %w", err)
		}
	} else {
		privateKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate account key: %w", err)
		}
		if keyPem, err = encodePrivateKey(privateKey); err != nil {
			return nil, nil, fmt.Errorf("failed to encode account key: %w", err)
		}
		reg = nil
	}

	user := &User{Email: c.email, Registration: reg, key: privateKey}
	config := lego.NewConfig(user)
	config.CADirURL = c.directoryURL
	config.Certificate.KeyType = certcrypto.EC256

	client, err := lego.NewClient(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create lego client: %w", err)
	}

	if user.Registration == nil {
		reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to register ACME account: %w", err)
		}
		user.Registration = reg
		if err := c.store.SaveAccount(keyPem, reg); err != nil {
			return nil, nil, err
		}
	}
	return user, client, nil
}

// Obtain requests a certificate for domains
func (c *LegoClient) Obtain(domains []string) (*Result, error) {
	_, client, err := c.ensureUser()
	if err != nil {
		return nil, err
	}

	if err := client.Challenge.SetHTTP01Provider(http01.NewProviderServer("", c.httpPort)); err != nil {
		return nil, fmt.Errorf("failed to set HTTP-01 provider: %w", err)
	}

	res, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: domains,
		Bundle:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to obtain certificate: %w", err)
	}
	return &Result{CertPem: res.Certificate, KeyPem: res.PrivateKey}, nil
}

// parsePrivateKey parses a PEM-encoded private key
func parsePrivateKey(keyPem string) (crypto.PrivateKey, error) {
	block, _ := pem.Decode([]byte(keyPem))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, errors.New("unsupported private key type")
}

// encodePrivateKey encodes an EC private key to PEM format
func encodePrivateKey(key crypto.PrivateKey) (string, error) {
	k, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return "", errors.New("unsupported private key type")
	}
	keyBytes, err := x509.MarshalECPrivateKey(k)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes})), nil
}

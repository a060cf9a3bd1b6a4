package redis

import "fmt"

const (
	// KeyPrefixPublic is the prefix for rendered public pages
	KeyPrefixPublic = "pulse:public:"
	// KeyPrefixPublished is the prefix for cached published snapshots
	KeyPrefixPublished = "pulse:published:"
	// KeyAllPublished is the key for the set of all published subdomains
	KeyAllPublished = "pulse:sites:published"
)

// PublicKey returns the Redis key for the page of a subdomain
func PublicKey(subdomain string) string {
	return KeyPrefixPublic + subdomain
}

// PublishedKey returns the Redis key for the snapshot of a subdomain
func PublishedKey(subdomain string) string {
	return KeyPrefixPublished + subdomain
}

// AllPublishedKey returns the key for the set of all published subdomains
func AllPublishedKey() string {
	return KeyAllPublished
}

// ExtractSubdomain extracts the subdomain from a public page key
func ExtractSubdomain(key string) (string, error) {
	if len(key) <= len(KeyPrefixPublic) || key[:len(KeyPrefixPublic)] != KeyPrefixPublic {
		return "", fmt.Errorf("invalid public key: %s", key)
	}
	return key[len(KeyPrefixPublic):], nil
}

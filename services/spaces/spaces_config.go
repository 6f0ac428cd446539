package spaces

import (
	"fmt"
	"os"
)

// NewSpacesClientFromEnv builds a client from SPACES_* environment variables.
func NewSpacesClientFromEnv() (*SpacesClient, error) {
	accessKey := os.Getenv("SPACES_ACCESS_KEY")
	secretKey := os.Getenv("SPACES_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("SPACES_ACCESS_KEY and SPACES_SECRET_KEY must be set")
	}

	region := os.Getenv("SPACES_REGION")
	if region == "" {
		region = "nyc3"
	}

	endpoint := os.Getenv("SPACES_ENDPOINT")
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", region)
	}

	return NewSpacesClient(Config{
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
		Endpoint:  endpoint,
		CDNBase:   os.Getenv("SPACES_CDN_BASE"),
	})
}

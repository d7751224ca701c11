package keys

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ADCMarker stands in for a key when Application Default Credentials are used.
const ADCMarker = "application-default-credentials"

func HasDefaultCredentials(ctx context.Context) bool {
	_, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	return err == nil
}

// ADCStore reports Application Default Credentials as the selected key. It is
// used with the Vertex AI backend, which authenticates without an API key.
type ADCStore struct {
	find func(ctx context.Context) bool
}

func NewADCStore() *ADCStore {
	return &ADCStore{find: HasDefaultCredentials}
}

func (s *ADCStore) Load(ctx context.Context) (string, error) {
	if s.find(ctx) {
		return ADCMarker, nil
	}
	return "", nil
}

// Save ignores key and succeeds once credentials can be found.
func (s *ADCStore) Save(ctx context.Context, key string) error {
	if s.find(ctx) {
		return nil
	}
	return fmt.Errorf("vertex backend uses application default credentials: run `gcloud auth application-default login`")
}

package keys

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type secretClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
}

// SecretStore keeps the key in Google Secret Manager. Every Save adds a
// version; Load reads the latest one.
type SecretStore struct {
	client  secretClient
	closer  func() error
	project string
	secret  string
}

func NewSecretStore(ctx context.Context, project, secret string) (*SecretStore, error) {
	if project == "" {
		return nil, fmt.Errorf("secret manager store requires GOOGLE_CLOUD_PROJECT")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}

	return &SecretStore{
		client:  client,
		closer:  client.Close,
		project: project,
		secret:  secret,
	}, nil
}

func (s *SecretStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *SecretStore) secretName() string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.project, s.secret)
}

func (s *SecretStore) Load(ctx context.Context) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretName() + "/versions/latest",
	})
	if status.Code(err) == codes.NotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", s.secret, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *SecretStore) Save(ctx context.Context, key string) error {
	_, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + s.project,
		SecretId: s.secret,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("create secret %s: %w", s.secret, err)
	}

	_, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  s.secretName(),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(key)},
	})
	if err != nil {
		return fmt.Errorf("add secret version: %w", err)
	}
	return nil
}

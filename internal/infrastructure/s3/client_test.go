package s3

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 1, 9, 23, 30, 0, 0, time.FixedZone("CET", 3600))

	assert.Equal(t, "reports/2024/01/2024-01-09-abc.md", ObjectKey(now, "2024-01-09-abc.md"))
	assert.Equal(t, "reports/2024/01/evil.md", ObjectKey(now, "../../evil.md"))
}

func TestGetPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "configured public url",
			cfg:  Config{Endpoint: "minio:9000", Bucket: "renders", PublicURL: "https://files.example.org/"},
			want: "https://files.example.org/renders/reports/2024/01/a.md",
		},
		{
			name: "endpoint fallback",
			cfg:  Config{Endpoint: "minio:9000", Bucket: "renders"},
			want: "http://minio:9000/renders/reports/2024/01/a.md",
		},
		{
			name: "endpoint fallback with ssl",
			cfg:  Config{Endpoint: "s3.example.org", Bucket: "renders", UseSSL: true},
			want: "https://s3.example.org/renders/reports/2024/01/a.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(&tt.cfg, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.GetPublicURL("reports/2024/01/a.md"))
		})
	}
}

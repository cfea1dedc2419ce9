package intent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fragment = "#Intent;component=com;scheme=zxing;category=BROWSABLE;action=com;package=com.google.zxing.client.android;end"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		uri   string
		want  Description
		valid bool
	}{
		{
			name: "host only",
			uri:  "intent://scan/" + fragment,
			want: Description{
				Scheme: "zxing", Package: "com.google.zxing.client.android", URIPath: "/", Host: "scan",
				Action: "com", Component: "com", Category: "BROWSABLE",
			},
			valid: true,
		},
		{
			name: "query without path",
			uri:  "intent://scan/?a=1/" + fragment,
			want: Description{
				Scheme: "zxing", Package: "com.google.zxing.client.android", URIPath: "?a=1", Host: "scan",
				Action: "com", Component: "com", Category: "BROWSABLE",
			},
			valid: true,
		},
		{
			name: "host and path",
			uri:  "intent://host/my/long/path?a=1/" + fragment,
			want: Description{
				Scheme: "zxing", Package: "com.google.zxing.client.android", URIPath: "my/long/path?a=1", Host: "host",
				Action: "com", Component: "com", Category: "BROWSABLE",
			},
			valid: true,
		},
		{
			name:  "no host and no path",
			uri:   "intent://#Intent;scheme=trusper.referrertests;package=trusper.referrertests;end",
			want:  Description{Scheme: "trusper.referrertests", Package: "trusper.referrertests"},
			valid: true,
		},
		{
			name: "no host with extra slash",
			uri:  "intent:///" + fragment,
			want: Description{
				Scheme: "zxing", Package: "com.google.zxing.client.android", URIPath: "/",
				Action: "com", Component: "com", Category: "BROWSABLE",
			},
			valid: true,
		},
		{
			name:  "misspelled fragment tag",
			uri:   "intent:///#Inttent;component=com;scheme=zxing;package=com.google.zxing.client.android;end",
			want:  Description{},
			valid: false,
		},
		{
			name:  "missing end tag",
			uri:   "intent://scan/#Intent;scheme=zxing;package=p",
			want:  Description{},
			valid: false,
		},
		{
			name:  "other scheme",
			uri:   "https://scan/" + fragment,
			want:  Description{},
			valid: false,
		},
		{
			name:  "nothing to open",
			uri:   "intent://#Intent;scheme=x;end",
			want:  Description{Scheme: "x"},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.uri)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, got.Valid())

			_, err := ParseValid(tt.uri)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidURI))
			}
		})
	}
}

func TestSchemeFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		source string
		uri    string
		want   map[string]any
	}{
		{
			name:   "empty source passes through",
			source: "",
			uri:    "intent://scan/" + fragment,
			want:   map[string]any{"scheme": "zxing", "path": "/", "host": "scan"},
		},
		{
			name:   "custom filter",
			source: "(function(result) {return {'scheme': result.scheme+'custom', 'path': result.path+'custom', 'host': result.host+'custom'}; })",
			uri:    "intent://scan/" + fragment,
			want:   map[string]any{"scheme": "zxingcustom", "path": "/custom", "host": "scancustom"},
		},
		{
			name:   "optional host left out",
			source: "(function(result) {return {'scheme': result.scheme+'custom', 'path': result.path+'custom' }; })",
			uri:    "intent://host/my/long/path?a=1/" + fragment,
			want:   map[string]any{"scheme": "zxingcustom", "path": "my/long/path?a=1custom"},
		},
		{
			name:   "non object result",
			source: "(function(result) { return 42; })",
			uri:    "intent://scan/" + fragment,
			want:   map[string]any{},
		},
		{
			name:   "array result",
			source: "(function(result) { return [1, 2]; })",
			uri:    "intent://scan/" + fragment,
			want:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSchemeFilter(map[string]string{Scheme: tt.source})
			got, err := f.Apply(context.Background(), tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemeFilter_OtherSchemes(t *testing.T) {
	f := NewSchemeFilter(map[string]string{
		"mailto": "(function(u) { return {'scheme': 'https', 'host': 'mail.example.com', 'path': '/compose/' + u.path}; })",
	})
	assert.True(t, f.HasFilterFor("mailto"))
	assert.False(t, f.HasFilterFor("tel"))
	assert.Equal(t, []string{"mailto"}, f.Schemes())

	got, err := f.Apply(context.Background(), "mailto:someone@example.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"scheme": "https", "host": "mail.example.com", "path": "/compose/"}, got)

	got, err = f.Apply(context.Background(), "tel://host:99/555")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"scheme": "tel", "path": "/555", "host": "host"}, got)
}

func TestSchemeFilter_Timeout(t *testing.T) {
	f := NewSchemeFilter(
		map[string]string{"loop": "(function(u) { for (;;) {} })"},
		WithTimeout(50*time.Millisecond),
	)

	_, err := f.Apply(context.Background(), "loop://x")
	require.Error(t, err)

	// the runtime is usable after an interrupt
	got, err := f.Apply(context.Background(), "https://example.org/a")
	require.NoError(t, err)
	assert.Equal(t, "example.org", got["host"])
}

func TestSchemeFilter_ScriptError(t *testing.T) {
	f := NewSchemeFilter(map[string]string{"x": "(function(u) { throw new Error('boom'); })"})
	_, err := f.Apply(context.Background(), "x://y")
	require.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "valid",
			data: `{"intent": "(function(u) { return u; })", "ignored": 3}`,
			want: map[string]string{"intent": "(function(u) { return u; })"},
		},
		{name: "not callable", data: `{"intent": "1 + 1"}`, wantErr: true},
		{name: "syntax error", data: `{"intent": "(function("}`, wantErr: true},
		{name: "array", data: `["(function(u) { return u; })"]`, wantErr: true},
		{name: "empty object", data: `{}`, wantErr: true},
		{name: "garbage", data: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilters([]byte(tt.data))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFilterFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilterFile(t *testing.T) {
	_, err := ParseFilterFile(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrInvalidFilterFile)

	path := filepath.Join(t.TempDir(), "filters.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intent": "(function(u) { return u; })"}`), 0o644))
	got, err := ParseFilterFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

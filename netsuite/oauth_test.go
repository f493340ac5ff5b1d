package netsuite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner(creds Credentials) *signer {
	return &signer{
		creds: creds,
		nonce: func() string { return "abcdef1234567890" },
		now:   func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "a%20b", percentEncode("a b"))
	assert.Equal(t, "%2A", percentEncode("*"))
	assert.Equal(t, "~", percentEncode("~"))
	assert.Equal(t, "a%2Bb", percentEncode("a+b"))
	assert.Equal(t, "%26%3D%2F", percentEncode("&=/"))
	assert.Equal(t, "abc-XYZ_123.~", percentEncode("abc-XYZ_123.~"))
}

func TestAuthorizationHeaderSignature(t *testing.T) {
	creds := Credentials{
		AccountID:      "123456_SB1",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tk",
		TokenSecret:    "ts",
	}
	s := fixedSigner(creds)

	rawURL := "https://123456-sb1.suitetalk.api.netsuite.com/services/rest/query/v1/suiteql?limit=1000&offset=0"
	header, err := s.AuthorizationHeader("POST", rawURL)
	require.NoError(t, err)

	// The base string is fully determined by the fixed nonce and clock:
	// sorted encoded params, query parameters included, realm excluded.
	params := strings.Join([]string{
		"limit=1000",
		"oauth_consumer_key=ck",
		"oauth_nonce=abcdef1234567890",
		"oauth_signature_method=HMAC-SHA256",
		"oauth_timestamp=1700000000",
		"oauth_token=tk",
		"oauth_version=1.0",
		"offset=0",
	}, "&")
	base := "POST" +
		"&" + percentEncode("https://123456-sb1.suitetalk.api.netsuite.com/services/rest/query/v1/suiteql") +
		"&" + percentEncode(params)
	mac := hmac.New(sha256.New, []byte("cs&ts"))
	mac.Write([]byte(base))
	wantSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, strings.HasPrefix(header, `OAuth realm="123456_SB1", `))
	assert.Contains(t, header, `oauth_signature_method="HMAC-SHA256"`)
	assert.Contains(t, header, `oauth_timestamp="1700000000"`)
	assert.Contains(t, header, `oauth_signature="`+percentEncode(wantSig)+`"`)
}

func TestRealmStaysOutOfSignature(t *testing.T) {
	rawURL := "https://x.suitetalk.api.netsuite.com/services/rest/query/v1/suiteql?limit=10&offset=0"
	creds := Credentials{AccountID: "AAA", ConsumerKey: "ck", ConsumerSecret: "cs", TokenID: "tk", TokenSecret: "ts"}

	h1, err := fixedSigner(creds).AuthorizationHeader("POST", rawURL)
	require.NoError(t, err)
	creds.AccountID = "BBB"
	h2, err := fixedSigner(creds).AuthorizationHeader("POST", rawURL)
	require.NoError(t, err)

	sig := func(h string) string {
		i := strings.Index(h, `oauth_signature="`)
		require.Positive(t, i)
		return h[i:]
	}
	assert.Equal(t, sig(h1), sig(h2))
	assert.NotEqual(t, h1, h2)
}

func TestSigningKeyChangesSignature(t *testing.T) {
	rawURL := "https://x.suitetalk.api.netsuite.com/services/rest/query/v1/suiteql?limit=10&offset=0"
	creds := Credentials{AccountID: "A", ConsumerKey: "ck", ConsumerSecret: "cs", TokenID: "tk", TokenSecret: "ts"}

	h1, err := fixedSigner(creds).AuthorizationHeader("POST", rawURL)
	require.NoError(t, err)
	creds.TokenSecret = "other"
	h2, err := fixedSigner(creds).AuthorizationHeader("POST", rawURL)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

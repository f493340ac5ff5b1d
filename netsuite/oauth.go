package netsuite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credentials is the token-based auth material for one NetSuite account.
// One credential set per process; rotation happens outside the gateway.
type Credentials struct {
	AccountID      string
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string
}

// signer builds OAuth1 HMAC-SHA256 Authorization headers. Nonce and clock are
// injectable so tests can assert exact signatures.
type signer struct {
	creds Credentials
	nonce func() string
	now   func() time.Time
}

func newSigner(creds Credentials) *signer {
	return &signer{
		creds: creds,
		nonce: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		now:   time.Now,
	}
}

// percentEncode applies RFC 3986 encoding as OAuth1 requires. url.QueryEscape
// is close but encodes spaces as '+' and leaves some reserved characters.
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

// AuthorizationHeader signs one request. The realm (account id) goes into the
// header but stays out of the signature base string.
func (s *signer) AuthorizationHeader(method, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        fmt.Sprintf("%d", s.now().Unix()),
		"oauth_token":            s.creds.TokenID,
		"oauth_version":          "1.0",
	}

	// Signature base parameters: oauth params plus every query parameter,
	// all percent-encoded, sorted by encoded key then value.
	type pair struct{ k, v string }
	var pairs []pair
	for k, v := range oauthParams {
		pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
	}
	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	paramParts := make([]string, len(pairs))
	for i, p := range pairs {
		paramParts[i] = p.k + "=" + p.v
	}
	baseURL := u.Scheme + "://" + u.Host + u.Path
	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(strings.Join(paramParts, "&"))

	key := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.TokenSecret)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headerParts := []string{fmt.Sprintf(`realm="%s"`, percentEncode(s.creds.AccountID))}
	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		headerParts = append(headerParts, fmt.Sprintf(`%s="%s"`, k, percentEncode(oauthParams[k])))
	}
	headerParts = append(headerParts, fmt.Sprintf(`oauth_signature="%s"`, percentEncode(signature)))

	return "OAuth " + strings.Join(headerParts, ", "), nil
}

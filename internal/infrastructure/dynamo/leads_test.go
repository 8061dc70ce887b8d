package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lead-verify/internal/config"
	"github.com/lead-verify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conditionFailed = `{"__type":"com.amazonaws.dynamodb.v20120810#ConditionalCheckFailedException","message":"The conditional request failed"}`

type cannedResponse struct {
	status int
	body   string
}

// fakeDynamo answers DynamoDB JSON API calls from a fixed queue and records
// each request body.
type fakeDynamo struct {
	mu        sync.Mutex
	responses []cannedResponse
	targets   []string
	requests  []map[string]interface{}
}

func (f *fakeDynamo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.targets = append(f.targets, r.Header.Get("X-Amz-Target"))
	f.requests = append(f.requests, body)
	var resp cannedResponse
	if len(f.responses) > 0 {
		resp, f.responses = f.responses[0], f.responses[1:]
	} else {
		resp = cannedResponse{http.StatusBadRequest, `{"__type":"com.amazonaws.dynamodb.v20120810#ValidationException","message":"unexpected call"}`}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func newFakeRepo(t *testing.T, responses ...cannedResponse) (*LeadRepo, *fakeDynamo) {
	t.Helper()
	fake := &fakeDynamo{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), &config.Config{
		AWSRegion:      "af-south-1",
		AWSEndpointURL: srv.URL,
		AWSAccessKeyID: "AKIDTEST",
		AWSSecretKey:   "secret",
	})
	require.NoError(t, err)
	return NewLeadRepo(client, "leads_test"), fake
}

func updated(status domain.LeadStatus, emailVerified, phoneVerified bool) cannedResponse {
	item := map[string]interface{}{
		"Attributes": map[string]interface{}{
			"lead_id":        map[string]interface{}{"S": "L1"},
			"name":           map[string]interface{}{"S": "Sipho Dlamini"},
			"phone":          map[string]interface{}{"S": "+27821234567"},
			"email_verified": map[string]interface{}{"BOOL": emailVerified},
			"phone_verified": map[string]interface{}{"BOOL": phoneVerified},
			"lead_status":    map[string]interface{}{"S": string(status)},
			"updated_at":     map[string]interface{}{"S": time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)},
		},
	}
	b, _ := json.Marshal(item)
	return cannedResponse{http.StatusOK, string(b)}
}

// stringValues returns every S value bound in a request's expression values.
func stringValues(req map[string]interface{}) []string {
	var out []string
	values, _ := req["ExpressionAttributeValues"].(map[string]interface{})
	for _, v := range values {
		if av, ok := v.(map[string]interface{}); ok {
			if s, ok := av["S"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func TestLeadRepo_ConsumeEmailToken_FirstChannel(t *testing.T) {
	repo, fake := newFakeRepo(t, updated(domain.LeadStatusUnverified, true, false))

	l, err := repo.ConsumeEmailToken(context.Background(), "L1", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "L1", l.LeadID)
	assert.Equal(t, "Sipho Dlamini", l.Name)
	assert.True(t, l.EmailVerified)
	assert.False(t, l.PhoneVerified)
	assert.Equal(t, domain.LeadStatusUnverified, l.LeadStatus)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "DynamoDB_20120810.UpdateItem", fake.targets[0])
	req := fake.requests[0]
	assert.Equal(t, "ALL_NEW", req["ReturnValues"])
	assert.Contains(t, req["UpdateExpression"], "REMOVE")
	assert.Contains(t, req["ConditionExpression"], "attribute_not_exists")
	assert.ElementsMatch(t, []string{"unverified", "tok-1"}, withoutTimestamps(stringValues(req)))
}

func TestLeadRepo_ConsumePhoneOTP_SecondChannelWritesVerified(t *testing.T) {
	repo, fake := newFakeRepo(t,
		cannedResponse{http.StatusBadRequest, conditionFailed},
		updated(domain.LeadStatusVerified, true, true),
	)

	l, err := repo.ConsumePhoneOTP(context.Background(), "L1", "123456")
	require.NoError(t, err)
	assert.True(t, l.PhoneVerified)
	assert.Equal(t, domain.LeadStatusVerified, l.LeadStatus)

	require.Len(t, fake.requests, 2)
	retry := fake.requests[1]
	assert.NotContains(t, retry["ConditionExpression"], "attribute_not_exists")
	assert.ElementsMatch(t, []string{"verified", "123456"}, withoutTimestamps(stringValues(retry)))
}

func TestLeadRepo_Consume_ConditionFailedIsNotFound(t *testing.T) {
	repo, fake := newFakeRepo(t,
		cannedResponse{http.StatusBadRequest, conditionFailed},
		cannedResponse{http.StatusBadRequest, conditionFailed},
	)

	l, err := repo.ConsumeEmailToken(context.Background(), "L1", "stale")
	assert.Nil(t, l)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Len(t, fake.requests, 2)
}

func TestLeadRepo_Consume_OtherErrorsAreNotRetried(t *testing.T) {
	repo, fake := newFakeRepo(t, cannedResponse{http.StatusBadRequest,
		`{"__type":"com.amazonaws.dynamodb.v20120810#ResourceNotFoundException","message":"table missing"}`})

	_, err := repo.ConsumePhoneOTP(context.Background(), "L1", "123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.Len(t, fake.requests, 1)
}

func TestLeadRepo_SetPhoneOTP_UnknownLead(t *testing.T) {
	repo, fake := newFakeRepo(t, cannedResponse{http.StatusBadRequest, conditionFailed})

	err := repo.SetPhoneOTP(context.Background(), "nope", "123456", time.Now().Add(10*time.Minute))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.Len(t, fake.requests, 1)
	assert.Contains(t, fake.requests[0]["ConditionExpression"], "attribute_exists")
}

// withoutTimestamps drops the updated_at value, which varies per call.
func withoutTimestamps(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if _, err := time.Parse(time.RFC3339Nano, v); err == nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

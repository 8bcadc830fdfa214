package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"token":"sk"}`), Type: types.ParameterTypeSecureString,
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), " p ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"sk"}`, v)
	require.Equal(t, "p", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p")}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestGetParameter_NotFound(t *testing.T) {
	api := &fakeAPI{getErr: &types.ParameterNotFound{}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetParameter_ApiError(t *testing.T) {
	client, err := New(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	client, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "must not be nil")
}

type fakeGetter struct {
	vals  map[string]string
	err   error
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func TestNewTokenSource_Validates(t *testing.T) {
	_, err := NewTokenSource(nil, "/quicksquad")
	require.Error(t, err)
	_, err = NewTokenSource(&fakeGetter{}, " / ")
	require.Error(t, err)
}

func TestTokenSource_FetchedOnce(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{"/quicksquad/open-ai-token": `{"token":"sk-from-ssm"}`}}
	src, err := NewTokenSource(g, "/quicksquad/")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		key, err := src.APIKey(context.Background())
		require.NoError(t, err)
		require.Equal(t, "sk-from-ssm", key)
	}
	require.Equal(t, 1, g.calls)
}

func TestTokenSource_MissingParameterMeansNotConfigured(t *testing.T) {
	src, err := NewTokenSource(&fakeGetter{vals: map[string]string{}}, "/quicksquad")
	require.NoError(t, err)
	key, err := src.APIKey(context.Background())
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestTokenSource_EmptyTokenField(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{"/quicksquad/open-ai-token": `{"other":"value"}`}}
	src, err := NewTokenSource(g, "/quicksquad")
	require.NoError(t, err)
	key, err := src.APIKey(context.Background())
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestTokenSource_MalformedJSON(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{"/quicksquad/open-ai-token": `{"broken`}}
	src, err := NewTokenSource(g, "/quicksquad")
	require.NoError(t, err)
	_, err = src.APIKey(context.Background())
	require.ErrorContains(t, err, "unmarshal")
}

func TestTokenSource_ErrorIsRetried(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	src, err := NewTokenSource(g, "/quicksquad")
	require.NoError(t, err)

	_, err = src.APIKey(context.Background())
	require.ErrorContains(t, err, "ssm unavailable")

	g.err = nil
	g.vals = map[string]string{"/quicksquad/open-ai-token": `{"token":"sk"}`}
	key, err := src.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk", key)
	require.Equal(t, 2, g.calls)
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegetrack/collegetrack/internal/infra"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetTextOr(t *testing.T) {
	var out bytes.Buffer
	got, err := GetTextOr(rdr("\n"), "Country", "US", &out)
	require.NoError(t, err)
	assert.Equal(t, "US", got)
	assert.Contains(t, out.String(), "Country [US]")

	got, err = GetTextOr(rdr("FR\n"), "Country", "US", &out)
	require.NoError(t, err)
	assert.Equal(t, "FR", got)
}

func TestGetPassword(t *testing.T) {
	stubPasswords(t, "s3cretPass")
	var out bytes.Buffer
	got, err := GetPassword("Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cretPass", got)
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetPasswordError(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Password", &out)
	assert.Error(t, err)
}

func TestMetadataStore(t *testing.T) {
	ctx := context.Background()
	db, err := infra.OpenSQLite(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer db.Close()
	store := NewMetadataStore(db)

	value, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Set(ctx, "k", []byte("one")))
	require.NoError(t, store.Set(ctx, "k", []byte("two")))
	value, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), value)

	require.NoError(t, store.Delete(ctx, "k"))
	value, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, value)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentID(t *testing.T) {
	id := NewDocumentID("AUTH_test", "photos", "2024/cat.jpg")
	assert.Equal(t, DocumentID("AUTH_test/photos/2024/cat.jpg"), id)
	assert.Equal(t, "AUTH_test/photos/2024/cat.jpg", id.String())
}

func TestNewDocumentID_Unicode(t *testing.T) {
	id := NewDocumentID("test_account", "test_container", "monkey-🐵")
	assert.Equal(t, "test_account/test_container/monkey-🐵", id.String())
}

func TestDocumentID_Split(t *testing.T) {
	account, container, name, err := NewDocumentID("a", "c", "dir/sub/obj").Split()
	require.NoError(t, err)
	assert.Equal(t, "a", account)
	assert.Equal(t, "c", container)
	assert.Equal(t, "dir/sub/obj", name)
}

func TestDocumentID_Split_Malformed(t *testing.T) {
	for _, id := range []DocumentID{"", "a", "a/c", "a//o", "/c/o"} {
		_, _, _, err := id.Split()
		assert.ErrorIs(t, err, ErrInvalidInput, "id %q", id)
	}
}

func TestDocumentIDStrings(t *testing.T) {
	got := DocumentIDStrings([]DocumentID{"a/c/1", "a/c/2"})
	assert.Equal(t, []string{"a/c/1", "a/c/2"}, got)
}

func TestChangeRow_Identity(t *testing.T) {
	row := ChangeRow{Account: "a", Container: "c", Name: "o"}
	assert.Equal(t, DocumentID("a/c/o"), row.Identity())
}

func TestChangeRow_LatestTimestamp(t *testing.T) {
	row := ChangeRow{Account: "a", Container: "c", Name: "o", CreatedAt: "1500000000.00000+64+a"}
	ts, err := row.LatestTimestamp()
	require.NoError(t, err)
	assert.Equal(t, Timestamp(150000000000110), ts)

	row.CreatedAt = "bogus"
	_, err = row.LatestTimestamp()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "a/c/o")
}

func TestChangeRow_Validate(t *testing.T) {
	valid := ChangeRow{Account: "a", Container: "c", Name: "o"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		row  ChangeRow
	}{
		{"no account", ChangeRow{Container: "c", Name: "o"}},
		{"no container", ChangeRow{Account: "a", Name: "o"}},
		{"no name", ChangeRow{Account: "a", Container: "c"}},
		{"invalid utf8", ChangeRow{Account: "a", Container: "c", Name: "\xff\xfe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.row.Validate(), ErrInvalidInput)
		})
	}
}

package commitment_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/mynextid/private-score/commitment"
	"github.com/stretchr/testify/require"
)

func fixedSalt(b byte) []byte {
	return bytes.Repeat([]byte{b}, commitment.SaltSize)
}

func TestCommitLayout(t *testing.T) {
	salt := fixedSalt(0xab)

	msg := make([]byte, 64)
	msg[30] = 0x03 // 771 = 0x0303
	msg[31] = 0x03
	copy(msg[32:], salt)
	want := sha256.Sum256(msg)

	got, err := commitment.Commit(771, salt)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(want[:]), got)
	require.Len(t, got, 64)
}

func TestCommitDeterministic(t *testing.T) {
	salt := fixedSalt(0x01)
	a, err := commitment.Commit(700, salt)
	require.NoError(t, err)
	b, err := commitment.Commit(700, salt)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := commitment.Commit(701, salt)
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	d, err := commitment.Commit(700, fixedSalt(0x02))
	require.NoError(t, err)
	require.NotEqual(t, a, d)
}

func TestCommitRange(t *testing.T) {
	salt := fixedSalt(0x00)

	for _, s := range []int{300, 850} {
		_, err := commitment.Commit(s, salt)
		require.NoError(t, err, "score %d", s)
	}
	for _, s := range []int{200, 299, 851, 900} {
		_, err := commitment.Commit(s, salt)
		require.ErrorIs(t, err, commitment.ErrScoreOutOfRange, "score %d", s)
	}
}

func TestCommitInvalidSalt(t *testing.T) {
	_, err := commitment.Commit(700, []byte{1, 2, 3})
	require.ErrorIs(t, err, commitment.ErrInvalidSalt)

	_, err = commitment.CommitHex(700, "zz")
	require.ErrorIs(t, err, commitment.ErrInvalidSalt)
}

func TestVerify(t *testing.T) {
	hash, salt, err := commitment.New(742)
	require.NoError(t, err)
	require.Len(t, salt, 64)

	require.True(t, commitment.Verify(742, salt, hash))
	require.True(t, commitment.Verify(742, salt, strings.ToUpper(hash)))
	require.False(t, commitment.Verify(743, salt, hash))
	require.False(t, commitment.Verify(742, strings.Repeat("00", 32), hash))

	t.Run("malformed inputs", func(t *testing.T) {
		require.False(t, commitment.Verify(742, "not-hex", hash))
		require.False(t, commitment.Verify(742, salt, "not-hex"))
		require.False(t, commitment.Verify(742, salt, hash[:10]))
		require.False(t, commitment.Verify(900, salt, hash))
	})
}

func TestNewSaltUnique(t *testing.T) {
	a, err := commitment.NewSalt()
	require.NoError(t, err)
	b, err := commitment.NewSalt()
	require.NoError(t, err)
	require.Len(t, a, commitment.SaltSize)
	require.NotEqual(t, a, b)
}

func TestNewRejectsOutOfRange(t *testing.T) {
	_, _, err := commitment.New(900)
	require.ErrorIs(t, err, commitment.ErrScoreOutOfRange)
	_, _, err = commitment.New(200)
	require.ErrorIs(t, err, commitment.ErrScoreOutOfRange)
}

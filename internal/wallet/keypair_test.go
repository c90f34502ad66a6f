package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

// solana-cli 的 id.json 格式：64 个字节的 JSON 数字数组
func TestLoad_JSONArray(t *testing.T) {
	acc := sdktypes.NewAccount()
	nums := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		nums[i] = int(b)
	}
	raw, err := json.Marshal(nums)
	require.NoError(t, err)

	loaded, err := Load(writeTemp(t, "id.json", raw))
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, loaded.PublicKey)
}

func TestLoad_Base58(t *testing.T) {
	acc := sdktypes.NewAccount()
	encoded := base58.Encode(acc.PrivateKey)

	loaded, err := Load(writeTemp(t, "key.txt", []byte(encoded+"\n")))
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, loaded.PublicKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/id.json")
		assert.Error(t, err)
	})

	t.Run("garbage content", func(t *testing.T) {
		_, err := Load(writeTemp(t, "bad.txt", []byte("!!!not a key!!!")))
		assert.Error(t, err)
	})

	t.Run("out of range byte", func(t *testing.T) {
		_, err := Load(writeTemp(t, "bad.json", []byte("[1,2,300]")))
		assert.ErrorContains(t, err, "out-of-range")
	})

	t.Run("wrong length array", func(t *testing.T) {
		_, err := Load(writeTemp(t, "short.json", []byte("[1,2,3]")))
		assert.Error(t, err)
	})
}

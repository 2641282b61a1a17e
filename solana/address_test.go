// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solana_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

func TestAddress(t *testing.T) {
	addr := solana.BytesToAddress([]byte{1, 2, 3})
	assert.Equal(t, solana.Address{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3}, addr)

	parsed, err := solana.ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	assert.False(t, addr.IsZero())
	assert.True(t, solana.Address{}.IsZero())
	assert.True(t, solana.SystemProgramID.IsZero())

	_, err = solana.ParseAddress("abc")
	assert.Error(t, err)
	_, err = solana.ParseAddress("IO0l")
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	addr := solana.BytesToAddress([]byte{0xde, 0xad, 0xbe, 0xef})

	data, err := json.Marshal(&addr)
	assert.Nil(t, err)
	assert.Equal(t, "\""+addr.String()+"\"", string(data))

	var decoded solana.Address
	assert.Nil(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.True(t, IsRevertErr(pkgerrors.Wrap(revert, "wrapped")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func TestRevertKinds(t *testing.T) {
	err := ErrNotStaked.Withf("token %d", 7)
	assert.Equal(t, "Token is not staked: token 7", err.Error())
	assert.Equal(t, ErrNotStaked.Kind(), err.Kind())

	assert.True(t, errors.Is(err, ErrNotStaked))
	assert.True(t, errors.Is(pkgerrors.Wrap(err, "outer"), ErrNotStaked))
	assert.False(t, errors.Is(err, ErrStillLocked))
	assert.False(t, errors.Is(errors.New("Token is not staked"), ErrNotStaked))
}

func TestRevertBytes(t *testing.T) {
	data := ErrStillLocked.Bytes()

	assert.Equal(t, []byte{0x08, 0xc3, 0x79, 0xa0}, data[:4])
	assert.Equal(t, byte(32), data[4+31])
	assert.Equal(t, byte(len(ErrStillLocked.Error())), data[4+63])
	assert.Equal(t, ErrStillLocked.Error(), string(data[68:68+len(ErrStillLocked.Error())]))
	assert.Zero(t, len(data[4:])%32)

	var nilRevert *ErrRevert
	assert.Nil(t, nilRevert.Bytes())
}

// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	mathrand "math/rand/v2"

	"github.com/nftstaker/nftstaker/thor"
)

func RandomHash() (b thor.Bytes32) {
	rand.Read(b[:])
	return
}

func RandAddress() (addr thor.Address) {
	rand.Read(addr[:])
	return
}

func RandUint64N(n uint64) uint64 {
	return mathrand.Uint64N(n) //#nosec G404
}

// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/state"
)

// Builder helper to build genesis state.
type Builder struct {
	stateProcs []func(state *state.State) error
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build runs the state processes in order and commits the result.
// Nothing is committed when a process fails.
func (b *Builder) Build(st *state.State) error {
	checkpoint := st.NewCheckpoint()
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			st.RevertTo(checkpoint)
			return errors.Wrap(err, "state process")
		}
	}
	if err := st.Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	return nil
}

// Verify builds into a throwaway in-memory state.
func (b *Builder) Verify() error {
	db, err := lvldb.NewMem()
	if err != nil {
		return err
	}
	defer db.Close()
	return b.Build(state.New(db))
}

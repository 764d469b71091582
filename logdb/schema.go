// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	blockNumber INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	blockTime INTEGER NOT NULL,
	txID BLOB(32) NOT NULL,
	txOrigin BLOB(20) NOT NULL,
	address BLOB(20) NOT NULL,
	topic0 BLOB(32),
	topic1 BLOB(32),
	topic2 BLOB(32),
	topic3 BLOB(32),
	topic4 BLOB(32),
	data BLOB,
	PRIMARY KEY (blockNumber, eventIndex)
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(address);
CREATE INDEX IF NOT EXISTS event_i1 ON event(topic0);
CREATE INDEX IF NOT EXISTS event_i2 ON event(topic1);
CREATE INDEX IF NOT EXISTS event_i3 ON event(topic2);
CREATE INDEX IF NOT EXISTS event_i4 ON event(blockTime);
`

// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const logTableSchema = `
create table if not exists log (
	blockID blob(32),
	blockNumber decimal(32,0),
	blockTime decimal(32,0),
	txID blob(32),
	txIndex integer,
	logIndex integer,
	address blob(20),
	topic0 blob(32),
	topic1 blob(32),
	topic2 blob(32),
	topic3 blob(32),
	data blob
);

CREATE INDEX if not exists blockNumberIndex on log(blockNumber);
CREATE INDEX if not exists addressIndex on log(address);

CREATE INDEX if not exists topicIndex0 on log(topic0);
CREATE INDEX if not exists topicIndex1 on log(topic1);
CREATE INDEX if not exists topicIndex2 on log(topic2);
CREATE INDEX if not exists topicIndex3 on log(topic3);
`

package redis

import (
	"fmt"

	"github.com/mcoot/teamenforcer/internal/model"
)

// keyspace builds every key under one prefix. Table names mirror the
// relational stores.
type keyspace string

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return keyspace(prefix)
}

// ban is the key of a BanRecord
func (k keyspace) ban(id model.BanID) string {
	return fmt.Sprintf("%s:ctban:%d", k, id)
}

// unban is the key of the UnbanRecord of a ban
func (k keyspace) unban(banID model.BanID) string {
	return fmt.Sprintf("%s:ctunban:%d", k, banID)
}

// bansFor is the ZSET of ban ids issued to an identity, scored by id
func (k keyspace) bansFor(identity model.Identity) string {
	return fmt.Sprintf("%s:idx:ctbans_for:%s", k, identity)
}

func (k keyspace) banSequence() string {
	return fmt.Sprintf("%s:seq:ctban", k)
}

func (k keyspace) unbanSequence() string {
	return fmt.Sprintf("%s:seq:ctunban", k)
}

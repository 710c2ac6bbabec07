package redis

const (
	// KeyPrefixSnapshot is the prefix for per-conversation snapshot keys.
	KeyPrefixSnapshot = "threadly:snapshot:"
	// KeyFavorites is the global favorites index entry.
	KeyFavorites = "threadly:favorites"
	// KeyCollections is the global collections entry.
	KeyCollections = "threadly:collections"
	// KeyAllSnapshots is the set of all snapshot keys, kept for inspection
	// and external pruning.
	KeyAllSnapshots = "threadly:snapshots:all"
)

// SnapshotKey returns the key for one (platform, path) conversation.
func SnapshotKey(platform, path string) string {
	return KeyPrefixSnapshot + platform + ":" + path
}

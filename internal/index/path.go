package index

// CratePath returns the sharded directory of a crate in the index.
//
//	len 1  -> "1"
//	len 2  -> "2"
//	len 3  -> "3/<c0>"
//	len 4+ -> "<c0c1>/<c2c3>"
//
// The same shard is used as the key prefix for tarballs in blob storage.
func CratePath(name string) string {
	switch len(name) {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3/" + name[:1]
	default:
		return name[:2] + "/" + name[2:4]
	}
}

// CrateFilePath returns the path of a crate's index file
func CrateFilePath(name string) string {
	return CratePath(name) + "/" + name
}

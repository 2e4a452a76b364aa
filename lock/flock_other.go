//go:build !unix

package lock

import "os"

// No advisory locking here; the in-process mutex still serialises this process.

func lockShared(*os.File) error { return nil }

func lockExclusive(*os.File) error { return nil }

func unlock(*os.File) error { return nil }

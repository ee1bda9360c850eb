/*
Package kv defines a unified interface to a number of ordered key/value
storage engines. Since each engine has different capabilities, this
package defines a core Backend interface plus a handful of optional
capability interfaces that a Backend may or may not satisfy.

Keys and values are plain byte slices. Ordering is always lexicographic
by unsigned byte comparison:

	A string s precedes a string t in lexicographic order if:
	  * s is a prefix of t, or
	  * if c and d are respectively the first byte of s and t in which
	    they differ, then c precedes d in byte order.

Backends that support range queries hand back either a lazy Iterator
(for one-shot forward-only scans) or a Cursor (for stateful bidirectional
positioning, seeking, and bounded fetch). Backends that support atomic
multi-key updates hand back a Txn, acquired and released the same way a
file or a lock is: open it, defer its release, and let Finish decide
whether to commit or roll back based on whether the enclosing function
returned an error.

This package does not implement a storage engine itself; see kv/memkv
and kv/boltkv for two concrete Backend implementations.
*/
package kv

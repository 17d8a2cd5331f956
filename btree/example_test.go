package btree

import "fmt"

func Example() {
	var btree BTree

	btree.Set([]byte("s/pets\x30cat\x00"), []byte("j{}"))
	btree.Set([]byte("s/pets\x30cow\x00"), []byte("j{}"))
	btree.Set([]byte("s/pets\x30dog\x00"), []byte("j{}"))

	_, found := btree.Get([]byte("s/pets\x30cow\x00"))
	fmt.Printf("cow found: %v, keys: %d\n", found, btree.Len())

	btree.Delete([]byte("s/pets\x30cow\x00"))
	val, found := btree.Get([]byte("s/pets\x30cow\x00"))
	fmt.Printf("cow after delete: %d bytes (found: %v), live: %d\n", len(val), found, btree.Live())

	btree.Compact()
	_, found = btree.Get([]byte("s/pets\x30cow\x00"))
	fmt.Printf("cow after compact: found %v, keys: %d\n", found, btree.Len())

	btree.Reset()
	fmt.Printf("Empty after reset: %v\n", btree.Empty())

	// Output:
	// cow found: true, keys: 3
	// cow after delete: 0 bytes (found: true), live: 2
	// cow after compact: found false, keys: 2
	// Empty after reset: true
}

func ExampleBTree_Iter() {
	var btree BTree
	btree.Set([]byte("cat"), []byte("spots"))
	btree.Set([]byte("cow"), []byte("brown"))
	btree.Set([]byte("ox"), []byte("spots"))

	iter := btree.Iter()
	iter.SeekLast()
	for iter.Valid() {
		fmt.Printf("%s: %s\n", iter.Key(), iter.Val())
		iter.Prev()
	}

	// Output:
	// ox: spots
	// cow: brown
	// cat: spots
}

func ExampleBTree_Items() {
	var btree BTree
	btree.Set([]byte("cat"), []byte("spots"))
	btree.Delete([]byte("cow"))
	btree.Set([]byte("ox"), []byte("spots"))

	for key, val := range btree.Items {
		if len(val) == 0 {
			fmt.Printf("%s: <deleted>\n", key)
		} else {
			fmt.Printf("%s: %s\n", key, val)
		}
	}

	// Output:
	// cat: spots
	// cow: <deleted>
	// ox: spots
}

package memorydb

import (
	"bytes"
	"testing"
)

func TestPutGetDelete(t *testing.T) {
	db := New()
	key := []byte{0x01, 0x02}

	if ok, _ := db.Has(key); ok {
		t.Fatal("empty db claims to have key")
	}
	if v, err := db.Get(key); err != nil || v != nil {
		t.Fatalf("get on empty db = %x, %v", v, err)
	}
	if err := db.Put(key, []byte("value")); err != nil {
		t.Fatal(err)
	}
	v, err := db.Get(key)
	if err != nil || !bytes.Equal(v, []byte("value")) {
		t.Fatalf("get = %q, %v", v, err)
	}
	if err := db.Delete(key); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.Has(key); ok {
		t.Fatal("deleted key still present")
	}
}

func TestValueIsolation(t *testing.T) {
	db := New()
	val := []byte{1, 2, 3}
	db.Put([]byte("k"), val)
	val[0] = 9

	got, _ := db.Get([]byte("k"))
	if got[0] != 1 {
		t.Fatal("stored value aliased the caller's slice")
	}
	got[1] = 9
	again, _ := db.Get([]byte("k"))
	if again[1] != 2 {
		t.Fatal("returned value aliased the store")
	}
}

func TestClosed(t *testing.T) {
	db := New()
	db.Close()
	if err := db.Put([]byte("k"), []byte("v")); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if _, err := db.Get([]byte("k")); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

package main

import (
	"fmt"

	"github.com/rkoval/logkv"
)

func main() {
	db, err := logkv.Open("data/store.log")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	if !db.Put("key1", []byte("value1")) {
		fmt.Println("put key1 failed")
		return
	}
	fmt.Println("put key1 ok")

	value, ok := db.Get("key1")
	if !ok {
		fmt.Println("get key1: absent")
		return
	}
	fmt.Println("get key1:", string(value))

	if !db.Del("key1") {
		fmt.Println("del key1: was already absent")
	} else {
		fmt.Println("del key1 ok")
	}

	if !db.Compact() {
		fmt.Println("compact failed")
	} else {
		fmt.Println("compact ok")
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hetq_test

import (
	"fmt"
	"unsafe"

	"code.hybscloud.com/hetq"
)

// Example demonstrates pushing elements of unrelated types through one
// queue and consuming them back in order.
func Example() {
	q := hetq.NewMPMC()
	defer q.Close()

	hetq.Push(q, 7)
	hetq.Push(q, "hello")
	hetq.Push(q, 3.25)

	for {
		v, err := q.Pop()
		if err != nil {
			break
		}
		fmt.Println(v)
	}
	// Output:
	// 7
	// hello
	// 3.25
}

// ExampleQueue_TryConsume dispatches on the element type without boxing.
func ExampleQueue_TryConsume() {
	q := hetq.NewSPSC()
	defer q.Close()

	hetq.Push(q, 42)
	hetq.Push(q, "world")

	for {
		err := q.TryConsume(func(rt hetq.RuntimeType, elem unsafe.Pointer) {
			switch {
			case hetq.Is[int](rt):
				fmt.Println("int:", hetq.ValueAs[int](rt, elem))
			case hetq.Is[string](rt):
				fmt.Println("string:", hetq.ValueAs[string](rt, elem))
			}
		})
		if err != nil {
			break
		}
	}
	// Output:
	// int: 42
	// string: world
}

// ExampleProducer_StartPush constructs a payload in place and attaches a
// variable-length raw allocation before committing.
func ExampleProducer_StartPush() {
	q := hetq.NewMPMC()
	defer q.Close()

	tx, err := q.StartPush(hetq.TypeOf[int]())
	if err != nil {
		panic(err)
	}
	*(*int)(tx.Element()) = 1
	if _, err := tx.RawAllocateCopy([]byte("side payload")); err != nil {
		panic(err)
	}
	tx.Commit()

	v, _ := q.Pop()
	fmt.Println(v)
	// Output:
	// 1
}

// ExampleFuncQueue defers calls through a queue.
func ExampleFuncQueue() {
	fq := hetq.NewFuncQueue()
	defer fq.Close()

	fq.Push(func() { fmt.Println("first") })
	fq.Push(func() { fmt.Println("second") })

	for fq.TryConsume() == nil {
	}
	// Output:
	// first
	// second
}

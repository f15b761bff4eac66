// Command rtticdemo exercises the conversion engine end to end: compiling a
// couple of operation sequences, running them, framing one for transport,
// and repeating the whole thing in a tight loop under a heap profile — the
// same shape as the teacher's own profiling harness.
package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"reflect"
	"runtime"
	"runtime/pprof"

	"github.com/rawbytedev/rttic/conversion"
	"github.com/rawbytedev/rttic/rtti"
	"github.com/rawbytedev/rttic/rtti/stream"
	"github.com/rawbytedev/rttic/wire"
)

type reading struct {
	Sensor string
	Value  float64
	Tags   []string
}

func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()

	f, err := os.Create("mem.prof")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	int32Type := rtti.TypeOf(int32(0))
	stringType := rtti.TypeOf("")
	toString, ok := conversion.Find("ToString")
	if !ok {
		log.Fatal("ToString operation not registered")
	}
	toStringSeq := conversion.NewOneOpSequence(toString)
	toStringOp, err := conversion.Compile(toStringSeq, false, int32Type, stringType)
	if err != nil {
		log.Fatalf("compiling ToString sequence: %v", err)
	}

	readingType := rtti.TypeOf(reading{})
	memBufType := rtti.TypeOf(stream.MemoryBuffer{})
	binSer, _ := conversion.Find("Binary Serialization")
	binDeser, _ := conversion.Find("Binary Deserialization")
	serSeq := conversion.NewOneOpSequence(binSer)
	deserSeq := conversion.NewOneOpSequence(binDeser)
	serOp, err := conversion.Compile(serSeq, false, readingType, memBufType)
	if err != nil {
		log.Fatalf("compiling Binary Serialization sequence: %v", err)
	}
	deserOp, err := conversion.Compile(deserSeq, false, memBufType, readingType)
	if err != nil {
		log.Fatalf("compiling Binary Deserialization sequence: %v", err)
	}

	wireFrame, err := wire.Encode(serSeq.Serialize())
	if err != nil {
		log.Fatalf("framing serialized sequence: %v", err)
	}
	log.Printf("framed operation sequence: %d bytes", len(wireFrame))

	for i := 0; i < 10000; i++ {
		src := int32(i)
		var dst string
		srcVal := reflect.ValueOf(&src).Elem()
		dstVal := reflect.ValueOf(&dst).Elem()
		if err := toStringOp.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)); err != nil {
			log.Fatalf("iteration %d: %v", i, err)
		}

		in := reading{Sensor: "temp-0", Value: float64(i), Tags: []string{"lab", "east"}}
		var buf stream.MemoryBuffer
		inVal := reflect.ValueOf(&in).Elem()
		bufVal := reflect.ValueOf(&buf).Elem()
		if err := serOp.Convert(rtti.ConstPointerTo(inVal), rtti.PointerTo(bufVal)); err != nil {
			log.Fatalf("serialize iteration %d: %v", i, err)
		}
		var out reading
		outVal := reflect.ValueOf(&out).Elem()
		if err := deserOp.Convert(rtti.ConstPointerTo(bufVal), rtti.PointerTo(outVal)); err != nil {
			log.Fatalf("deserialize iteration %d: %v", i, err)
		}
	}

	pprof.WriteHeapProfile(f)
}

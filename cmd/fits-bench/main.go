package main

import (
	"encoding/binary"
	"hash/crc32"
	"log"
	"sync"
	"time"

	"github.com/gpu-ninja/fits"
	"github.com/gpu-ninja/fits/array"
	"github.com/silverisntgold/randshiro"
)

const imageWidth = 512
const imageHeight = 512
const totalImages = 200
const queueDepth = 8

func main() {
	header := syntheticHeader()

	var wg sync.WaitGroup
	jobCh := make(chan int)

	var mu sync.Mutex
	var mismatches int

	for i := 0; i < queueDepth; i++ {
		go worker(&wg, jobCh, header, &mu, &mismatches)
	}

	start := time.Now()

	for i := 0; i < totalImages; i++ {
		wg.Add(1)
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	elapsed := time.Since(start)

	bytesPerImage := int64(imageWidth*imageHeight) * 4 // bitpix=-32
	throughput := float64(totalImages) * float64(bytesPerImage) / elapsed.Seconds() / (1024 * 1024)

	log.Printf("round-trips: %d, mismatches: %d, throughput: %.2f MB/s\n", totalImages, mismatches, throughput)
}

func worker(jobCompleted *sync.WaitGroup, jobCh <-chan int, header *fits.Header, mu *sync.Mutex, mismatches *int) {
	rng := randshiro.New128pp()
	reader := &randshiroReader{rng: rng}

	for range jobCh {
		raw := make([]float32, imageWidth*imageHeight)
		buf := make([]byte, len(raw)*4)
		if _, err := reader.Read(buf); err != nil {
			log.Fatal(err)
		}
		for i := range raw {
			raw[i] = float32(binary.LittleEndian.Uint32(buf[i*4:])) / float32(1<<32)
		}

		shape := []int64{imageHeight, imageWidth}
		arr, err := array.New(raw, shape)
		if err != nil {
			log.Fatal(err)
		}

		img := fits.ImageArray{Kind: fits.ElementF32, F32: arr}
		encoded, err := fits.EncodeImage(img, header)
		if err != nil {
			log.Fatal(err)
		}

		kind := fits.HduKind{Tag: fits.KindImage, Bitpix: -32, Naxis: []int64{imageWidth, imageHeight}}
		decoded, err := fits.DecodeImage(encoded, header, kind)
		if err != nil {
			log.Fatal(err)
		}

		reencoded, err := fits.EncodeImage(decoded, header)
		if err != nil {
			log.Fatal(err)
		}
		if crc32.ChecksumIEEE(encoded) != crc32.ChecksumIEEE(reencoded) {
			mu.Lock()
			*mismatches++
			mu.Unlock()
		}

		jobCompleted.Done()
	}
}

func syntheticHeader() *fits.Header {
	h := fits.NewHeader()
	h.Append(fits.Record{Kind: fits.KeywordRecord, Name: "SIMPLE", Value: fits.LogicalValue(true)})
	h.Append(fits.Record{Kind: fits.KeywordRecord, Name: "BITPIX", Value: fits.IntegerValue(-32)})
	h.Append(fits.Record{Kind: fits.KeywordRecord, Name: "NAXIS", Value: fits.IntegerValue(2)})
	h.Append(fits.Record{Kind: fits.KeywordRecord, Name: "NAXIS1", Value: fits.IntegerValue(imageWidth)})
	h.Append(fits.Record{Kind: fits.KeywordRecord, Name: "NAXIS2", Value: fits.IntegerValue(imageHeight)})
	return h
}

type randshiroReader struct {
	rng *randshiro.Gen
}

func (r *randshiroReader) Read(p []byte) (int, error) {
	n := 0
	for len(p[n:]) >= 8 {
		binary.LittleEndian.PutUint64(p[n:], r.rng.Uint64())
		n += 8
	}
	if n < len(p) {
		remainingBytes := r.rng.Uint64()
		for i := n; i < len(p); i++ {
			p[i] = byte(remainingBytes)
			remainingBytes >>= 8
		}
		n = len(p)
	}
	return n, nil
}

package chunker

// Chunk is a half-open index range [Start, End) over a token sequence.
type Chunk struct {
	Index int
	Start int
	End   int
}

// Len returns the number of tokens the chunk covers.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Size returns the number of tokens per chunk when n tokens are spread over
// parallelism workers: ceil(n / parallelism), at least 1 when n > 0.
// A parallelism below 1 is treated as 1.
func Size(n, parallelism int) int {
	if n <= 0 {
		return 0
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return max(ceilDiv(n, parallelism), 1)
}

// Plan splits n tokens into contiguous chunks for at most parallelism workers.
//
// The chunk size is ceil(n/parallelism) and the chunk count is then derived
// from the size as ceil(n/size), so a small n yields fewer chunks than
// requested and no chunk is ever empty. Chunks are disjoint and together
// cover [0, n) exactly once. Plan returns nil when n <= 0.
func Plan(n, parallelism int) []Chunk {
	size := Size(n, parallelism)
	if size == 0 {
		return nil
	}

	count := ceilDiv(n, size)
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := i * size
		end := min(start+size, n)
		chunks = append(chunks, Chunk{
			Index: i,
			Start: start,
			End:   end,
		})
	}

	return chunks
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

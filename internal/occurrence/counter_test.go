package occurrence

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/nikhilbhutani/wordcount/pkg/tokenizer"
)

const sample = "Ciao mi chiamo Michele Maione e sono un informatico e sono nato a Napoli e sono bello"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func oracle(text, word string) int {
	return tokenizer.CountMatches(strings.Fields(text), word)
}

func TestCountSample(t *testing.T) {
	tests := []struct {
		text string
		word string
		want int
	}{
		{sample, "sono", 3},
		{sample, "Napoli", 1},
		{sample, "e", 3},
		{sample, "napoli", 0},
		{sample, "Milano", 0},
		{"", "anything", 0},
		{"   \n\t ", "anything", 0},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.text, tt.word))
		})
	}
}

func TestCounterEmptyTextSpawnsNoWorkers(t *testing.T) {
	c := NewCounter(WithParallelism(8))
	c.scan = func([]string, string) int {
		t.Error("scan called for empty text")
		return 0
	}

	res, err := c.Count("", "sono")
	require.NoError(t, err)
	assert.Equal(t, Result{Parallelism: 8}, res)
}

func TestCounterFewerTokensThanWorkers(t *testing.T) {
	c := NewCounter(WithParallelism(64))

	res, err := c.Count("sono e sono", "sono")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 3, res.Tokens)
	assert.Equal(t, 3, res.Workers)
	assert.Equal(t, 64, res.Parallelism)
}

func TestCounterEffectiveWorkers(t *testing.T) {
	c := NewCounter(WithParallelism(8))

	res, err := c.Count(sample, "sono")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 17, res.Tokens)
	// chunk size ceil(17/8)=3 gives ceil(17/3)=6 workers
	assert.Equal(t, 6, res.Workers)
}

func TestCounterFallsBackToSingleWorker(t *testing.T) {
	c := NewCounter()
	c.parallelism = func() int { return 0 }

	res, err := c.Count(sample, "sono")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 1, res.Workers)
	assert.Equal(t, 1, res.Parallelism)
}

func TestWithParallelismIgnoresNonPositive(t *testing.T) {
	c := NewCounter(WithParallelism(0))
	assert.Equal(t, HardwareParallelism(), c.parallelism())
	assert.GreaterOrEqual(t, HardwareParallelism(), 1)
}

func TestCounterWorkerFault(t *testing.T) {
	c := NewCounter(WithParallelism(4))
	c.scan = func(tokens []string, word string) int {
		if tokens[0] == "e" {
			panic("scan exploded")
		}
		return tokenizer.CountMatches(tokens, word)
	}

	// 17 tokens over 4 workers: chunks of 5, only chunk 1 starts with "e"
	res, err := c.Count(sample, "sono")
	require.Error(t, err)
	assert.Equal(t, Result{}, res, "no partial result on fault")
	assert.True(t, errors.Is(err, ErrWorkerFault))

	var fault *WorkerFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, 1, fault.Worker)
	assert.Equal(t, 5, fault.Start)
	assert.Equal(t, 10, fault.End)
	assert.Equal(t, "scan exploded", fault.Value)
	assert.NotEmpty(t, fault.Stack)
	assert.Contains(t, err.Error(), "worker 1 [5, 10)")
}

func TestCountPanicsOnFault(t *testing.T) {
	saved := defaultCounter
	defer func() { defaultCounter = saved }()

	defaultCounter = NewCounter(WithParallelism(2))
	defaultCounter.scan = func(tokens []string, word string) int {
		if tokens[0] == "Ciao" {
			panic("boom")
		}
		return tokenizer.CountMatches(tokens, word)
	}

	assert.PanicsWithError(t, `count occurrences of "sono": worker 0 [0, 9) failed: boom`, func() {
		Count(sample, "sono")
	})
}

func TestCountMatchesOracle(t *testing.T) {
	vocabulary := []string{"sono", "Sono", "e", "a", "Napoli", "bello", "sono,"}
	separators := []string{" ", "  ", "\t", "\n", " \r\n "}

	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.SampledFrom(vocabulary), 0, 300).Draw(rt, "words")
		var b strings.Builder
		for _, w := range words {
			b.WriteString(rapid.SampledFrom(separators).Draw(rt, "sep"))
			b.WriteString(w)
		}
		text := b.String()
		word := rapid.SampledFrom(vocabulary).Draw(rt, "word")
		p := rapid.IntRange(1, 128).Draw(rt, "parallelism")

		res, err := NewCounter(WithParallelism(p)).Count(text, word)
		require.NoError(rt, err)
		require.Equal(rt, oracle(text, word), res.Count)
		require.LessOrEqual(rt, res.Workers, p)
		require.LessOrEqual(rt, res.Workers, res.Tokens)
	})
}

func TestCountArbitraryText(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.String().Draw(rt, "text")
		word := rapid.StringMatching(`\S{0,3}`).Draw(rt, "word")

		res, err := NewCounter(WithParallelism(3)).Count(text, word)
		require.NoError(rt, err)
		require.Equal(rt, oracle(text, word), res.Count)
	})
}

func TestCountInvariantToParallelism(t *testing.T) {
	text := strings.Repeat(sample+" ", 50)
	want := oracle(text, "sono")
	require.Equal(t, 150, want)

	for _, p := range []int{1, 2, 3, 7, 16, 1000, 100000} {
		res, err := NewCounter(WithParallelism(p)).Count(text, "sono")
		require.NoError(t, err)
		assert.Equal(t, want, res.Count, "parallelism %d", p)
	}
}

func TestCountStressNoLostUpdates(t *testing.T) {
	text := strings.Repeat("sono ", 257)
	c := NewCounter(WithParallelism(10000))

	for i := 0; i < 200; i++ {
		res, err := c.Count(text, "sono")
		require.NoError(t, err)
		require.Equal(t, 257, res.Count, "run %d", i)
		require.Equal(t, 257, res.Workers)
	}
}

func TestCounterConcurrentCalls(t *testing.T) {
	c := NewCounter(WithParallelism(4))
	errs := make(chan error, 32)

	for i := 0; i < cap(errs); i++ {
		go func() {
			res, err := c.Count(sample, "sono")
			if err == nil && res.Count != 3 {
				err = errors.New("wrong count")
			}
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		require.NoError(t, <-errs)
	}
}

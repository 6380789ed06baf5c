package session

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersummary/models"
	"ordersummary/processor"
)

var orders = []models.Order{
	{Date: "2024-01-01", Time: "09:15:00"},
	{Date: "2024-01-01", Time: "09:45:00"},
	{Date: "2024-01-02", Time: "10:00:00"},
	{Date: "2024-01-02", Time: "14:10:00"},
}

type recorder struct {
	lengths []int
}

func (r *recorder) build(intervalLength int) (*processor.Matrix, error) {
	r.lengths = append(r.lengths, intervalLength)
	m, _, err := processor.Compose(orders, intervalLength, processor.ComposeOptions{})
	return m, err
}

func run(t *testing.T, input string, opts Options) (string, *Session, *recorder, error) {
	t.Helper()
	rec := &recorder{}
	if opts.Build == nil {
		opts.Build = rec.build
	}
	var out bytes.Buffer
	s := New(strings.NewReader(input), &out, opts)
	err := s.Run()
	return out.String(), s, rec, err
}

func TestSessionFullConversation(t *testing.T) {
	out, s, rec, err := run(t, "60\nmonday\nTUESDAY\nsunday\n\n", Options{})
	require.NoError(t, err)

	assert.Equal(t, Done, s.State())
	assert.Equal(t, []int{60}, rec.lengths)
	assert.True(t, strings.HasPrefix(out, IntervalPrompt+"\nWEEKLY ORDER SUMMARY\n"))
	assert.Contains(t, out, DayPrompt+"9:00-9:59, 2 orders\n")
	assert.Contains(t, out, DayPrompt+"10:00-10:59, 1 orders\n")
	assert.Contains(t, out, DayPrompt+processor.NoOrdersMessage+"\n")
	assert.True(t, strings.HasSuffix(out, DayPrompt+"Bye!\n"))
	assert.Equal(t, 4, strings.Count(out, DayPrompt))
}

func TestSessionRepromptsForInterval(t *testing.T) {
	// not a number, zero, too long, does not divide the window, then valid
	out, _, rec, err := run(t, "abc\n0\n1000\n7\n 120 \n\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{120}, rec.lengths)
	assert.Equal(t, 5, strings.Count(out, IntervalPrompt))
	assert.Contains(t, out, "DAY\\TIME |  6:00-7:59|")
}

func TestSessionRepromptsForDay(t *testing.T) {
	out, s, _, err := run(t, "60\nfunday\nmon\ntuesday\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, Done, s.State())
	assert.Equal(t, 4, strings.Count(out, DayPrompt))
	assert.NotContains(t, out, "funday")
	assert.Contains(t, out, "10:00-10:59, 1 orders")
	assert.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestSessionTieGoesToFirstInterval(t *testing.T) {
	// 480 minute intervals: Tuesday has one order in each half of the day
	out, _, _, err := run(t, "480\ntuesday\n\n", Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "6:00-13:59, 1 orders")
}

func TestSessionPresetInterval(t *testing.T) {
	out, s, rec, err := run(t, "monday\n", Options{IntervalLength: 30})
	require.NoError(t, err)
	assert.Equal(t, []int{30}, rec.lengths)
	assert.NotContains(t, out, IntervalPrompt)
	assert.Contains(t, out, "9:00-9:29, 1 orders")
	assert.Equal(t, 32, s.Matrix().Intervals())
}

func TestSessionEOFBeforeInterval(t *testing.T) {
	_, s, rec, err := run(t, "abc\n", Options{})
	assert.ErrorIs(t, err, ErrNoInterval)
	assert.Equal(t, AwaitIntervalLength, s.State())
	assert.Empty(t, rec.lengths)
}

func TestSessionBuildErrorAborts(t *testing.T) {
	boom := errors.New("bad order data")
	_, s, _, err := run(t, "60\nmonday\n", Options{
		Build: func(int) (*processor.Matrix, error) { return nil, boom },
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, AwaitIntervalLength, s.State())
}

func TestSessionCustomRender(t *testing.T) {
	rendered := 0
	out, _, _, err := run(t, "60\n", Options{
		Render: func(_ io.Writer, m *processor.Matrix) error {
			rendered++
			assert.Equal(t, 16, m.Intervals())
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rendered)
	assert.NotContains(t, out, "WEEKLY ORDER SUMMARY")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "await_day_query", AwaitDayQuery.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestSessionBlankAnswerIsNotEmpty(t *testing.T) {
	out, s, _, err := run(t, "60\n   \nmonday\r\n\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, Done, s.State())
	assert.Equal(t, 3, strings.Count(out, DayPrompt))
	assert.Contains(t, out, DayPrompt+DayPrompt+"9:00-9:59, 2 orders\n")
}

func TestSessionWithoutBuilder(t *testing.T) {
	var out bytes.Buffer
	s := New(strings.NewReader("60\n"), &out, Options{})
	assert.ErrorIs(t, s.Run(), ErrNoBuild)
	assert.Empty(t, out.String())
}

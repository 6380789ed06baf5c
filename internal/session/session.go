// Package session drives the interactive weekly summary: it asks for an
// interval length, prints the weekly table and then answers peak queries
// until the user enters an empty line.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"ordersummary/logger"
	"ordersummary/processor"
	"ordersummary/writer"
)

const (
	IntervalPrompt = "\nPlease specify the length of the time interval in minutes: "
	DayPrompt      = "\nEnter day to see peak interval, or press Enter to stop: "
	Farewell       = "Bye!"
)

// State is a step of the session.
type State int

const (
	AwaitIntervalLength State = iota
	MatrixBuilt
	AwaitDayQuery
	Done
)

func (s State) String() string {
	switch s {
	case AwaitIntervalLength:
		return "await_interval_length"
	case MatrixBuilt:
		return "matrix_built"
	case AwaitDayQuery:
		return "await_day_query"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNoInterval is returned when input ends before a valid interval length
// was given.
var ErrNoInterval = errors.New("input ended before an interval length was given")

// ErrNoBuild is returned by Run when Options.Build is nil.
var ErrNoBuild = errors.New("session: no matrix builder configured")

// BuildFunc builds the matrix for the chosen interval length.
type BuildFunc func(intervalLength int) (*processor.Matrix, error)

// RenderFunc prints the weekly table.
type RenderFunc func(out io.Writer, m *processor.Matrix) error

// Options configure a Session. IntervalLength > 0 skips the interval prompt.
// Render defaults to writer.RenderTable.
type Options struct {
	IntervalLength int
	Build          BuildFunc
	Render         RenderFunc
}

type Session struct {
	in     *bufio.Scanner
	out    io.Writer
	opts   Options
	state  State
	matrix *processor.Matrix
	log    *logger.Entry
}

func New(in io.Reader, out io.Writer, opts Options) *Session {
	if opts.Render == nil {
		opts.Render = writer.RenderTable
	}
	return &Session{
		in:    bufio.NewScanner(in),
		out:   out,
		opts:  opts,
		state: AwaitIntervalLength,
		log:   logger.GetLogger().WithComponent("session"),
	}
}

// State reports where the session currently is.
func (s *Session) State() State { return s.state }

// Matrix returns the matrix once it has been built.
func (s *Session) Matrix() *processor.Matrix { return s.matrix }

// Run executes the session until the user stops or an error occurs.
func (s *Session) Run() error {
	if s.opts.Build == nil {
		return ErrNoBuild
	}
	for s.state != Done {
		var err error
		switch s.state {
		case AwaitIntervalLength:
			err = s.awaitInterval()
		case MatrixBuilt:
			err = s.opts.Render(s.out, s.matrix)
			if err == nil {
				s.transition(AwaitDayQuery)
			}
		case AwaitDayQuery:
			err = s.awaitDay()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) transition(next State) {
	s.log.WithFields(logger.Fields{"from": s.state.String(), "to": next.String()}).Debug("session state change")
	s.state = next
}

func (s *Session) awaitInterval() error {
	length := s.opts.IntervalLength
	for length == 0 {
		answer, ok := s.ask(IntervalPrompt)
		if !ok {
			if err := s.in.Err(); err != nil {
				return err
			}
			return ErrNoInterval
		}
		n, err := processor.ParseIntervalLength(answer)
		if err != nil {
			if !isRecoverable(err) {
				return err
			}
			s.log.WithError(err).Debug("interval length rejected")
			continue
		}
		length = n
	}

	m, err := s.opts.Build(length)
	if err != nil {
		return err
	}
	s.matrix = m
	s.transition(MatrixBuilt)
	return nil
}

func (s *Session) awaitDay() error {
	for {
		answer, ok := s.ask(DayPrompt)
		if !ok || answer == "" {
			if err := s.in.Err(); err != nil {
				return err
			}
			fmt.Fprintln(s.out, Farewell)
			s.transition(Done)
			return nil
		}
		res, err := processor.Peak(s.matrix, answer)
		if err != nil {
			if !isRecoverable(err) {
				return err
			}
			s.log.WithError(err).Debug("day rejected")
			continue
		}
		fmt.Fprintln(s.out, res.String())
		logger.IncrementQueries()
	}
}

// ask prints prompt and returns the next line without its line ending. ok is
// false at end of input.
func (s *Session) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSuffix(s.in.Text(), "\r"), true
}

func isRecoverable(err error) bool {
	var inputErr *processor.InputValidationError
	var domainErr *processor.DomainError
	return errors.As(err, &inputErr) || errors.As(err, &domainErr)
}

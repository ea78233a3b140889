package pqueue

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamenforcer/internal/model"
)

type QueueSuite struct {
	suite.Suite
	queue *Queue[string]
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.queue = New[string]()
}

func (s *QueueSuite) fill(items ...string) {
	for _, item := range items {
		s.Require().NoError(s.queue.Enqueue(item))
	}
}

func (s *QueueSuite) TestEnqueueDequeueOrder() {
	s.fill("a", "b", "c")

	for _, want := range []string{"a", "b", "c"} {
		got, err := s.queue.Dequeue()
		s.Require().NoError(err)
		s.Equal(want, got)
	}
	s.Equal(0, s.queue.Len())
}

func (s *QueueSuite) TestEnqueueDuplicate() {
	s.fill("a")

	err := s.queue.Enqueue("a")
	s.ErrorIs(err, model.ErrDuplicateItem)
	s.Equal(1, s.queue.Len())
}

func (s *QueueSuite) TestDequeueEmpty() {
	_, err := s.queue.Dequeue()
	s.ErrorIs(err, model.ErrEmptyQueue)
}

func (s *QueueSuite) TestPeek() {
	_, err := s.queue.Peek()
	s.ErrorIs(err, model.ErrEmptyQueue)

	s.fill("a", "b")
	head, err := s.queue.Peek()
	s.Require().NoError(err)
	s.Equal("a", head)
	s.Equal(2, s.queue.Len())
}

func (s *QueueSuite) TestDequeueMany() {
	s.fill("a", "b", "c", "d")

	items, err := s.queue.DequeueMany(3)
	s.Require().NoError(err)
	s.Equal([]string{"a", "b", "c"}, items)
	s.Equal([]string{"d"}, slices.Collect(s.queue.Snapshot()))
}

func (s *QueueSuite) TestDequeueManyInsufficientLeavesQueueUnchanged() {
	s.fill("a", "b")

	items, err := s.queue.DequeueMany(3)
	s.ErrorIs(err, model.ErrInsufficientItems)
	s.Nil(items)
	s.Equal([]string{"a", "b"}, slices.Collect(s.queue.Snapshot()))
}

func (s *QueueSuite) TestDequeueManyZero() {
	items, err := s.queue.DequeueMany(0)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *QueueSuite) TestRemoveFromMiddle() {
	s.fill("a", "b", "c")

	s.Require().NoError(s.queue.Remove("b"))
	s.False(s.queue.Contains("b"))
	s.Equal([]string{"a", "c"}, slices.Collect(s.queue.Snapshot()))

	err := s.queue.Remove("b")
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *QueueSuite) TestRemovedItemCanRejoinAtTail() {
	s.fill("a", "b", "c")
	s.Require().NoError(s.queue.Remove("a"))
	s.fill("a")

	s.Equal([]string{"b", "c", "a"}, slices.Collect(s.queue.Snapshot()))
}

func (s *QueueSuite) TestPositionOf() {
	s.fill("a", "b", "c")

	pos, err := s.queue.PositionOf("c")
	s.Require().NoError(err)
	s.Equal(3, pos)

	_, err = s.queue.PositionOf("z")
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *QueueSuite) TestPositionMatchesSnapshotAfterChurn() {
	s.fill("a", "b", "c", "d", "e")
	s.Require().NoError(s.queue.Remove("c"))
	_, err := s.queue.Dequeue()
	s.Require().NoError(err)
	s.fill("c", "f")
	s.ErrorIs(s.queue.Enqueue("d"), model.ErrDuplicateItem)

	snapshot := slices.Collect(s.queue.Snapshot())
	s.Equal([]string{"b", "d", "e", "c", "f"}, snapshot)
	for i, item := range snapshot {
		pos, err := s.queue.PositionOf(item)
		s.Require().NoError(err)
		s.Equal(i+1, pos)
	}
}

func (s *QueueSuite) TestSnapshotIsRestartableAndNonMutating() {
	s.fill("a", "b")

	first := slices.Collect(s.queue.Snapshot())
	second := slices.Collect(s.queue.Snapshot())
	s.Equal(first, second)
	s.Equal(2, s.queue.Len())
}

func (s *QueueSuite) TestSnapshotToleratesRemovalDuringIteration() {
	s.fill("a", "b", "c")

	var seen []string
	for item := range s.queue.Snapshot() {
		seen = append(seen, item)
		_ = s.queue.Remove(item)
	}
	s.Equal([]string{"a", "b", "c"}, seen)
	s.Equal(0, s.queue.Len())
}

func (s *QueueSuite) TestClear() {
	s.fill("a", "b")
	s.queue.Clear()

	s.Equal(0, s.queue.Len())
	s.False(s.queue.Contains("a"))
	s.fill("a")
	s.Equal(1, s.queue.Len())
}

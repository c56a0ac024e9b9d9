// Package tests holds reusable contract suites for the interfaces in ports.
// It imports the testing framework and must only be used from _test files.
package tests

import (
	"testing"
	"time"

	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LinkHarness is the remote side of a PeerLink under test.
type LinkHarness struct {
	// Link is the server side of the connection.
	Link domain.PeerLink
	// Say sends one line from the peer.
	Say func(line string)
	// Received returns every line the peer has received so far.
	Received func() []string
	// Hangup closes the connection from the peer side.
	Hangup func()
}

// RunPeerLinkContract runs a suite of tests to verify that a PeerLink
// implementation adheres to the non-blocking line contract.
// newHarness must return a fresh connection on every call.
func RunPeerLinkContract(t *testing.T, newHarness func(t *testing.T) LinkHarness) {
	t.Helper()

	t.Run("Read Pending", func(t *testing.T) {
		h := newHarness(t)
		defer h.Link.Close()

		res := h.Link.Read()
		assert.Equal(t, domain.ReadPending, res.Status, "no data must not block or close")
	})

	t.Run("Read Lines In Order", func(t *testing.T) {
		h := newHarness(t)
		defer h.Link.Close()

		h.Say("hello moo")
		h.Say("stepped a b")

		first := readEventually(t, h.Link)
		second := readEventually(t, h.Link)
		assert.Equal(t, "hello moo", first)
		assert.Equal(t, "stepped a b", second)
	})

	t.Run("Write Line", func(t *testing.T) {
		h := newHarness(t)
		defer h.Link.Close()

		require.NoError(t, h.Link.WriteLine("goto b"))
		require.Eventually(t, func() bool {
			return len(h.Received()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"goto b"}, h.Received())
	})

	t.Run("Hangup Closes", func(t *testing.T) {
		h := newHarness(t)
		defer h.Link.Close()

		h.Hangup()
		require.Eventually(t, func() bool {
			return h.Link.Read().Status == domain.ReadClosed
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, domain.ReadClosed, h.Link.Read().Status, "closed is sticky")
	})
}

func readEventually(t *testing.T, link domain.PeerLink) string {
	t.Helper()
	var line string
	require.Eventually(t, func() bool {
		res := link.Read()
		if res.Status == domain.ReadLine {
			line = res.Line
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return line
}

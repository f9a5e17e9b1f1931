package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmforge-dev/wasmforge/wireformat"
)

func TestServeStream_OneResponsePerRequest(t *testing.T) {
	d := testDispatcher(t)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`   `,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`not json at all`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"add","arguments":{"a":2,"b":2}}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := d.ServeStream(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, "blank lines are skipped, everything else gets exactly one response")

	var first, parseFail, last wireformat.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &parseFail))
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))

	assert.Equal(t, json.RawMessage("1"), first.ID)
	require.NotNil(t, parseFail.Error)
	assert.Equal(t, wireformat.CodeParseError, parseFail.Error.Code)
	assert.Equal(t, json.RawMessage("null"), parseFail.ID)
	assert.Equal(t, json.RawMessage("3"), last.ID)
	assert.Contains(t, string(last.Result), "WASM calculation result: 4")
}

func TestServeStream_OversizedLine(t *testing.T) {
	d := testDispatcher(t)

	long := strings.Repeat("x", MaxLineBytes+1)
	var out bytes.Buffer
	err := d.ServeStream(context.Background(), strings.NewReader(long+"\n"), &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestServeStream_ContextCancelled(t *testing.T) {
	d := testDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := d.ServeStream(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`+"\n"), &out)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

// request sends one line over conn and reads back one response line.
func request(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) wireformat.Response {
	t.Helper()
	_, err := fmt.Fprintf(conn, "%s\n", line)
	require.NoError(t, err)

	raw, err := reader.ReadString('\n')
	require.NoError(t, err)

	var resp wireformat.Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return resp
}

func TestServeTCP(t *testing.T) {
	d := testDispatcher(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- d.Serve(ctx, listener) }()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	resp := request(t, conn, reader, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Nil(t, resp.Error)
	assert.Contains(t, string(resp.Result), `"wasmforge"`)

	// Responses within one connection come back in request order.
	for i := 0; i < 3; i++ {
		line := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"add","arguments":{"a":%d,"b":1}}}`, i+10, i)
		resp := request(t, conn, reader, line)
		assert.Equal(t, json.RawMessage(fmt.Sprintf("%d", i+10)), resp.ID)
		assert.Contains(t, string(resp.Result), fmt.Sprintf("WASM calculation result: %d", i+1))
	}

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

func TestServeTCP_ConcurrentConnections(t *testing.T) {
	d := testDispatcher(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Serve(ctx, listener) }()

	const conns = 4
	results := make(chan error, conns)
	for i := 0; i < conns; i++ {
		go func(id int) {
			conn, err := net.Dial("tcp", listener.Addr().String())
			if err != nil {
				results <- err
				return
			}
			defer conn.Close()
			reader := bufio.NewReader(conn)

			for j := 0; j < 5; j++ {
				line := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/list"}`, id*100+j)
				if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
					results <- err
					return
				}
				raw, err := reader.ReadString('\n')
				if err != nil {
					results <- err
					return
				}
				var resp wireformat.Response
				if err := json.Unmarshal([]byte(raw), &resp); err != nil {
					results <- err
					return
				}
				if want := fmt.Sprintf("%d", id*100+j); string(resp.ID) != want {
					results <- fmt.Errorf("connection %d got id %s, want %s", id, resp.ID, want)
					return
				}
			}
			results <- nil
		}(i)
	}

	for i := 0; i < conns; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("connection worker timed out")
		}
	}
}

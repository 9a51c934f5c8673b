package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Add enqueues a new save request.
func (c *Client) Add(url, title, comment string) (*AddResponse, error) {
	var resp AddResponse
	req := AddRequest{URL: url, Title: title, Comment: comment}
	if err := c.client.Call("Linkq.Add", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sync requests an immediate delivery pass.
func (c *Client) Sync() (*SyncResponse, error) {
	var resp SyncResponse
	if err := c.client.Call("Linkq.Sync", SyncRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Linkq.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Linkq.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns queue items optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	req := QueueListRequest{Statuses: statuses}
	if err := c.client.Call("Linkq.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns details for a single queue item.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	req := QueueDescribeRequest{ID: id}
	if err := c.client.Call("Linkq.QueueDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry retries errored items.
func (c *Client) QueueRetry(ids []int64) (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	req := QueueRetryRequest{IDs: ids}
	if err := c.client.Call("Linkq.QueueRetry", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueuePurge removes delivered items from the queue.
func (c *Client) QueuePurge() (*QueuePurgeResponse, error) {
	var resp QueuePurgeResponse
	if err := c.client.Call("Linkq.QueuePurge", QueuePurgeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove removes specific items by id.
func (c *Client) QueueRemove(ids []int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	req := QueueRemoveRequest{IDs: ids}
	if err := c.client.Call("Linkq.QueueRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all items from the queue.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Linkq.QueueClear", QueueClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueHealth returns queue diagnostics.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	var resp QueueHealthResponse
	if err := c.client.Call("Linkq.QueueHealth", QueueHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Linkq.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches recent delivery events.
func (c *Client) Events(limit int) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Linkq.Events", EventsRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Linkq.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

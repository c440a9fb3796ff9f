package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// SendCommand dials the daemon socket, sends one command and returns
// the next update the daemon broadcasts. Used by the CLI subcommands.
func SendCommand(socketPath string, cmd Command) (*Update, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to reach daemon at %s: %w", socketPath, err)
	}
	defer conn.Close()

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	scanner := bufio.NewScanner(conn)
	var last *Update
	for scanner.Scan() {
		var u Update
		if err := json.Unmarshal(scanner.Bytes(), &u); err != nil {
			continue
		}
		last = &u
		// The first line may be the replayed pre-command state; one
		// more read picks up the response to our command.
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	}
	if last == nil {
		return nil, fmt.Errorf("no response from daemon")
	}
	return last, nil
}

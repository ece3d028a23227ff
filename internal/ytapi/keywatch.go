package ytapi

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// KeyFile ties a Client to an on-disk API key so the key can be rotated
// without a restart, either on demand or by watching the file.
type KeyFile struct {
	Path   string
	client *Client
}

func NewKeyFile(path string, client *Client) *KeyFile {
	return &KeyFile{Path: path, client: client}
}

// ReloadKey reads the key file and swaps the client's key. It returns a
// redacted descriptor suitable for logging and admin responses.
func (k *KeyFile) ReloadKey() (string, error) {
	if strings.TrimSpace(k.Path) == "" {
		return "", fmt.Errorf("api key file not configured")
	}
	data, err := os.ReadFile(k.Path)
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("api key file empty")
	}
	k.client.SetAPIKey(key)
	descriptor := fmt.Sprintf("key(len=%d)", len(key))
	slog.Info("youtube api key reloaded", "path", k.Path, "key", descriptor)
	return descriptor, nil
}

// Watch reloads the key whenever the file changes. Events are debounced;
// removed or renamed files are re-added so editors that replace the file
// keep working.
func (k *KeyFile) Watch() error {
	if strings.TrimSpace(k.Path) == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(k.Path); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := w.Add(ev.Name); err != nil {
						slog.Error("watch re-add", "path", ev.Name, "err", err)
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(250 * time.Millisecond)
				}
			case <-debounce.C:
				if _, err := k.ReloadKey(); err != nil {
					slog.Error("api key reload failed", "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("watch error", "err", err)
			}
		}
	}()
	return nil
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/clenoble/sovereign-sub001/internal/p2p"
)

// RunSync diffs a local sync manifest against a remote peer's manifest and
// reports what each side needs to exchange. The manifests themselves are
// read as plaintext JSON from disk: this module owns manifest diffing and
// encryption for transport (SyncManifest.Encrypt/DecryptManifest), not the
// connection that carries the bytes between devices.
func RunSync(ctx context.Context, localManifestPath, remoteManifestPath string) error {
	local, err := readManifest(localManifestPath)
	if err != nil {
		return fmt.Errorf("read local manifest: %w", err)
	}
	remote, err := readManifest(remoteManifestPath)
	if err != nil {
		return fmt.Errorf("read remote manifest: %w", err)
	}

	diff := p2p.DiffManifests(local, remote)

	if !diff.HasWork() {
		fmt.Println("in sync")
		return nil
	}

	fmt.Printf("need_from_remote=%d push_to_remote=%d conflicts=%d\n",
		len(diff.NeedFromRemote), len(diff.PushToRemote), len(diff.Conflicts))
	for _, docID := range diff.NeedFromRemote {
		fmt.Printf("  pull %s\n", docID)
	}
	for _, docID := range diff.PushToRemote {
		fmt.Printf("  push %s\n", docID)
	}
	for _, c := range diff.Conflicts {
		fmt.Printf("  conflict %s\n", c.DocID)
	}
	return nil
}

func readManifest(path string) (*p2p.SyncManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var manifest p2p.SyncManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

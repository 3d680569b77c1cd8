package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	extism "github.com/extism/go-sdk"
)

// pluginRuntime is the subset of *extism.Plugin's behavior Instance
// depends on, narrowed to an interface so the call dispatch in this
// file can be driven by a fake in tests without a real wasm sandbox.
// *extism.Plugin satisfies this structurally; no adapter is needed.
type pluginRuntime interface {
	FunctionExists(name string) bool
	Call(function string, input []byte) (uint32, []byte, error)
	Close(ctx context.Context) error
}

// Instance is one loaded sandbox: a running extism module plus the
// metadata and capabilities it reported. An Instance is not safe for
// concurrent calls; Pool leases each one to a single Handle at a time and
// keeps a list of interchangeable Instances rather than sharing one.
// Metadata.AllowConcurrency decides whether Pool may build more than one.
type Instance struct {
	wasmPath string
	runtime  pluginRuntime
	metadata Metadata
	caps     Capabilities
}

// Load builds a fresh sandbox for the module at wasmPath. dataDir is
// the root under which this plugin's declared filesystem mounts are
// materialized, one subdirectory per internal_path.
func Load(ctx context.Context, wasmPath, dataDir string) (*Instance, error) {
	metadata, err := probeMetadata(ctx, wasmPath)
	if err != nil {
		return nil, err
	}

	allowedPaths, err := materializeMounts(dataDir, metadata.FsMounts)
	if err != nil {
		return nil, fmt.Errorf("plugin: materialize mounts for %q: %w", metadata.Name, err)
	}

	manifest := extism.Manifest{
		Wasm:         []extism.Wasm{extism.WasmFile{Path: wasmPath}},
		AllowedPaths: allowedPaths,
	}
	runtime, err := extism.NewPlugin(ctx, manifest, extism.PluginConfig{EnableWasi: true}, nil)
	if err != nil {
		return nil, fmt.Errorf("plugin: load %q: %w", metadata.Name, err)
	}

	inst := &Instance{
		wasmPath: wasmPath,
		runtime:  runtime,
		metadata: metadata,
		caps:     deriveCapabilities(runtime),
	}
	return inst, nil
}

// probeMetadata loads the module once just to read get_metadata, then
// discards that instance. A second, final instance is built by Load
// with the declared filesystem mounts in place, since the mounts
// themselves are part of what get_metadata reports.
func probeMetadata(ctx context.Context, wasmPath string) (Metadata, error) {
	metadata, _, err := probeMetadataAndCapabilities(ctx, wasmPath)
	return metadata, err
}

// probeMetadataAndCapabilities loads wasmPath once, unmounted, to read
// its declared identity and derive its capabilities from which
// functions it exports. The probe instance is discarded; Load performs
// a second, final load with the declared filesystem mounts in place,
// since the mounts themselves are part of what get_metadata reports.
func probeMetadataAndCapabilities(ctx context.Context, wasmPath string) (Metadata, Capabilities, error) {
	manifest := extism.Manifest{Wasm: []extism.Wasm{extism.WasmFile{Path: wasmPath}}}
	probe, err := extism.NewPlugin(ctx, manifest, extism.PluginConfig{EnableWasi: true}, nil)
	if err != nil {
		return Metadata{}, Capabilities{}, fmt.Errorf("plugin: probe %q: %w", wasmPath, err)
	}
	defer probe.Close(ctx)

	if !probe.FunctionExists("get_metadata") {
		return Metadata{}, Capabilities{}, fmt.Errorf("plugin: %q does not implement get_metadata", wasmPath)
	}

	var metadata Metadata
	if err := callTyped(probe, "get_metadata", nil, &metadata); err != nil {
		return Metadata{}, Capabilities{}, fmt.Errorf("plugin: get_metadata on %q: %w", wasmPath, err)
	}
	return metadata, deriveCapabilities(probe), nil
}

// materializeMounts creates a host directory per declared mount and
// returns the sandbox-path -> host-path map extism.Manifest.AllowedPaths
// expects.
func materializeMounts(dataDir string, mounts []FsMount) (map[string]string, error) {
	allowed := make(map[string]string, len(mounts))
	for _, m := range mounts {
		hostPath := filepath.Join(dataDir, filepath.FromSlash(m.InternalPath))
		if err := os.MkdirAll(hostPath, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", hostPath, err)
		}
		allowed[m.InternalPath] = hostPath
	}
	return allowed, nil
}

func deriveCapabilities(runtime pluginRuntime) Capabilities {
	has := func(names []string) bool {
		for _, n := range names {
			if !runtime.FunctionExists(n) {
				return false
			}
		}
		return true
	}
	return Capabilities{
		ProvideTracks: has(provideTracksFuncs),
		Decode:        has(decodeFuncs),
	}
}

// Metadata returns the plugin's static identity.
func (i *Instance) Metadata() Metadata { return i.metadata }

// Capabilities returns the plugin's derived capabilities.
func (i *Instance) Capabilities() Capabilities { return i.caps }

// Close releases the underlying sandbox. Further calls on this Instance
// are invalid.
func (i *Instance) Close(ctx context.Context) error {
	if i.runtime == nil {
		return nil
	}
	return i.runtime.Close(ctx)
}

func callTyped(runtime pluginRuntime, function string, arg any, out any) error {
	input, err := encodeArg(arg)
	if err != nil {
		return err
	}
	exitCode, output, err := runtime.Call(function, input)
	if err != nil {
		return fmt.Errorf("plugin: call %q: %w", function, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("plugin: call %q exited with code %d", function, exitCode)
	}
	return decodeResult(output, out)
}

// PrepareScan asks a provide_tracks plugin for the set of tracks it is
// willing to offer this scan pass.
func (i *Instance) PrepareScan(ctx context.Context) (PreparedScan, error) {
	if !i.caps.ProvideTracks {
		return PreparedScan{}, fmt.Errorf("plugin: %q: %w", i.metadata.Name, ErrCapabilityMissing)
	}
	var out PreparedScan
	err := callTyped(i.runtime, "prepare_scan", nil, &out)
	return out, err
}

// Scan asks a provide_tracks plugin to report metadata for one track it
// previously offered via PrepareScan.
func (i *Instance) Scan(ctx context.Context, track TrackIdentifier) (ScanResult, error) {
	if !i.caps.ProvideTracks {
		return ScanResult{}, fmt.Errorf("plugin: %q: %w", i.metadata.Name, ErrCapabilityMissing)
	}
	var out ScanResult
	err := callTyped(i.runtime, "scan", track, &out)
	return out, err
}

// GetAudioFile asks a provide_tracks plugin to hand back the bytes for
// one track, ready to pass to a decoder plugin.
func (i *Instance) GetAudioFile(ctx context.Context, track TrackIdentifier) (AudioFile, error) {
	if !i.caps.ProvideTracks {
		return AudioFile{}, fmt.Errorf("plugin: %q: %w", i.metadata.Name, ErrCapabilityMissing)
	}
	var out AudioFile
	err := callTyped(i.runtime, "get_audio_file", track, &out)
	return out, err
}

// initDecodingArgs is the argument tuple init_decoding expects.
type initDecodingArgs struct {
	PlaybackID string    `msgpack:"playback_id"`
	File       AudioFile `msgpack:"file"`
}

// InitDecoding begins a decode session for file, identified by id for
// the lifetime of the session.
func (i *Instance) InitDecoding(ctx context.Context, id PlaybackID, file AudioFile) (DecodeInit, error) {
	if !i.caps.Decode {
		return DecodeInit{}, fmt.Errorf("plugin: %q: %w", i.metadata.Name, ErrCapabilityMissing)
	}
	var out DecodeInit
	err := callTyped(i.runtime, "init_decoding", initDecodingArgs{PlaybackID: id.String(), File: file}, &out)
	return out, err
}

// DecodeBlock returns the next block of decoded audio for id, or ok ==
// false when the stream is exhausted.
func (i *Instance) DecodeBlock(ctx context.Context, id PlaybackID) (block AudioBlock, ok bool, err error) {
	var out *AudioBlock
	if err := callTyped(i.runtime, "decode_block", id.String(), &out); err != nil {
		return AudioBlock{}, false, err
	}
	if out == nil {
		return AudioBlock{}, false, nil
	}
	return *out, true, nil
}

// FinishDecoding releases any per-session state the plugin held for id.
// Called exactly once, when the playback engine is done with the
// session, mirroring a destructor.
func (i *Instance) FinishDecoding(ctx context.Context, id PlaybackID) error {
	return callTyped(i.runtime, "finish_decoding", id.String(), nil)
}

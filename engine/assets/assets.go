package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/showroom/engine/assets/loaders"
	"github.com/spaghettifunk/showroom/engine/core"
)

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeModel
	ResourceTypeEnvironment
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeModel:
		return "model"
	case ResourceTypeEnvironment:
		return "environment"
	}
	return "none"
}

type AssetInfo struct {
	Path     string
	Type     ResourceType
	Size     int64
	Modified time.Time
}

/**
 * @brief Resolves asset paths against the assets directory, keeps an index of
 * the loadable files in it (updated live through fsnotify) and loads models and
 * environment maps through a Transport. It satisfies both ModelLoader and
 * EnvironmentLoader.
 */
type AssetManager struct {
	assetsDir string
	assets    map[string]AssetInfo
	transport Transport

	environments *loaders.HDRLoader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(transport Transport) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if transport == nil {
		transport = NewDefaultTransport()
	}

	am := &AssetManager{
		assets:       make(map[string]AssetInfo),
		transport:    transport,
		environments: &loaders.HDRLoader{},
		fsnotify:     fsWatch,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go am.start()
	return am, nil
}

// Initialize indexes assetsDir and starts watching it. An empty or missing
// directory is not an error: paths are then used as given.
func (am *AssetManager) Initialize(assetsDir string) error {
	if assetsDir == "" {
		return nil
	}
	if s, err := os.Stat(assetsDir); err != nil || !s.IsDir() {
		core.LogWarn("assets directory '%s' not found, paths will be used as given", assetsDir)
		return nil
	}
	am.assetsDir = assetsDir

	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	<-am.stopped
	return nil
}

// Resolve maps a manifest path to something the transport can open. URLs
// and absolute paths are returned untouched; relative paths are looked up
// under the assets directory first.
func (am *AssetManager) Resolve(p string) string {
	if IsRemote(p) || strings.HasPrefix(p, "file://") || filepath.IsAbs(p) || am.assetsDir == "" {
		return p
	}
	candidate := filepath.Join(am.assetsDir, p)

	am.mutex.RLock()
	_, indexed := am.assets[candidate]
	am.mutex.RUnlock()
	if indexed {
		return candidate
	}
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return p
}

// Assets returns the indexed files sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (am *AssetManager) LoadModel(ctx context.Context, p string, onProgress ProgressFunc) (*loaders.Model, error) {
	if p == "" {
		return nil, core.ErrEmptyAssetPath
	}
	if t := DetermineAssetType(p); t != ResourceTypeModel {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, p)
	}
	resolved := am.Resolve(p)
	data, err := am.fetch(ctx, resolved, onProgress)
	if err != nil {
		return nil, err
	}

	gl := &loaders.GLTFLoader{
		ResolveURI: func(uri string) ([]byte, error) {
			sibling, err := resolveSibling(resolved, uri)
			if err != nil {
				return nil, err
			}
			return am.fetch(ctx, sibling, nil)
		},
	}
	return gl.Parse(baseName(p), data)
}

func (am *AssetManager) LoadEnvironment(ctx context.Context, p string, onProgress ProgressFunc) (*loaders.EnvironmentMap, error) {
	if p == "" {
		return nil, core.ErrEmptyAssetPath
	}
	if t := DetermineAssetType(p); t != ResourceTypeEnvironment {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, p)
	}
	data, err := am.fetch(ctx, am.Resolve(p), onProgress)
	if err != nil {
		return nil, err
	}
	return am.environments.Parse(baseName(p), data)
}

func (am *AssetManager) fetch(ctx context.Context, p string, onProgress ProgressFunc) ([]byte, error) {
	rc, size, err := am.transport.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(newProgressReader(rc, size, onProgress))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.closed() {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name)
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			// can't stat a deleted path, so drop it from both the index and the watch list
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(root string) error {
	return filepath.Walk(root, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) handleFileEvent(p string) {
	assetType := DetermineAssetType(p)
	if assetType == ResourceTypeNone {
		return
	}
	info := AssetInfo{Path: p, Type: assetType}
	if s, err := os.Stat(p); err == nil {
		info.Size = s.Size()
		info.Modified = s.ModTime()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[p] = info
}

func (am *AssetManager) removeAsset(p string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, p)
}

// DetermineAssetType classifies a path or URL by its extension.
func DetermineAssetType(p string) ResourceType {
	if u, err := url.Parse(p); err == nil && IsRemote(p) {
		p = u.Path
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".gltf", ".glb":
		return ResourceTypeModel
	case ".hdr":
		return ResourceTypeEnvironment
	default:
		return ResourceTypeNone
	}
}

func baseName(p string) string {
	if u, err := url.Parse(p); err == nil && IsRemote(p) {
		return path.Base(u.Path)
	}
	return filepath.Base(p)
}

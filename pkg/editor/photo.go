package editor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/unowned-ai/remember/pkg/photos"
	"go.uber.org/zap"
)

// PhotoRequest is an in-flight photo pick. Gen identifies the pick; only the most recent
// pick may be applied.
type PhotoRequest struct {
	Gen    uint64
	Ref    string
	ctx    context.Context
	loader photos.Loader
}

// PhotoLoaded is the outcome of LoadPhoto.
type PhotoLoaded struct {
	Gen  uint64
	Data []byte
	Hash string
	Err  error
}

// pickGens hands out pick generations. They are unique across forms, so a result can only
// be applied by the form that started it.
var pickGens atomic.Uint64

// BeginPhotoPick starts a pick of the image at ref and supersedes any pick still loading.
func (f *Form) BeginPhotoPick(ctx context.Context, ref string) PhotoRequest {
	if f.cancelPick != nil {
		f.cancelPick()
	}
	f.pickGen = pickGens.Add(1)

	pickCtx, cancel := context.WithCancel(ctx)
	f.cancelPick = cancel
	return PhotoRequest{Gen: f.pickGen, Ref: ref, ctx: pickCtx, loader: f.loader}
}

// LoadPhoto reads and validates the picked image. It touches no form state and may run on
// any goroutine.
func LoadPhoto(req PhotoRequest) PhotoLoaded {
	res := PhotoLoaded{Gen: req.Gen}
	if req.loader == nil || req.ctx == nil {
		res.Err = errors.New("photo request was not started by a form")
		return res
	}

	data, err := req.loader.Load(req.ctx, req.Ref)
	if err != nil {
		res.Err = err
		return res
	}
	res.Data = data

	// A missing placeholder hash is not worth failing the pick over.
	if hash, err := photos.BlurHash(data); err == nil {
		res.Hash = hash
	}
	return res
}

// ApplyPhoto assigns a loaded photo to the draft. Results of superseded or cancelled
// picks and failed loads are discarded; ApplyPhoto reports whether the photo was taken.
func (f *Form) ApplyPhoto(res PhotoLoaded) bool {
	if res.Gen == 0 || res.Gen != f.pickGen {
		f.logger.Debug("discarding superseded photo pick", zap.Uint64("gen", res.Gen))
		return false
	}
	if f.cancelPick != nil {
		f.cancelPick()
		f.cancelPick = nil
	}
	if res.Err != nil {
		if !errors.Is(res.Err, context.Canceled) {
			f.logger.Warn("failed to load photo", zap.Error(res.Err))
		}
		return false
	}

	f.fields.Photo = res.Data
	f.photoHash = res.Hash
	f.photoCaptured = true
	return true
}

// CancelPhotoPick abandons the pick in progress so its result will not be applied.
func (f *Form) CancelPhotoPick() {
	if f.cancelPick != nil {
		f.cancelPick()
		f.cancelPick = nil
	}
	f.pickGen = pickGens.Add(1)
}

// PickPhoto loads the image at ref and assigns it in one step.
func (f *Form) PickPhoto(ctx context.Context, ref string) error {
	res := LoadPhoto(f.BeginPhotoPick(ctx, ref))
	if !f.ApplyPhoto(res) {
		if res.Err != nil {
			return res.Err
		}
		return errors.New("photo pick was superseded")
	}
	return nil
}

// PhotoCaptured reports whether a new photo is waiting to be committed.
func (f *Form) PhotoCaptured() bool { return f.photoCaptured }

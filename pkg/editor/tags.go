package editor

import (
	"context"
	"errors"

	"github.com/unowned-ai/remember/pkg/people"
	"go.uber.org/zap"
)

// AddTag associates the tag called name with the contact, creating the tag when no tag has
// exactly that name. Empty input is ignored. The tag input is cleared once the tag is added.
func (f *Form) AddTag(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	if f.deleted {
		return ErrDeleted
	}

	tag, created, err := people.EnsureTag(ctx, f.db, name)
	if err != nil {
		f.logger.Warn("failed to add tag", zap.String("tag", name), zap.Error(err))
		return err
	}
	if created {
		f.logger.Debug("tag created", zap.String("tag", name), zap.Stringer("tag_id", tag.ID))
	}

	f.contact.AddTag(tag)
	f.tagInput = ""

	if err := people.AttachTag(ctx, f.db, f.contact.ID, tag.ID); err != nil {
		f.logger.Warn("failed to save tag association", zap.String("tag", name), zap.Error(err))
		return err
	}
	return nil
}

// SubmitTagInput adds the tag currently typed into the tag input.
func (f *Form) SubmitTagInput(ctx context.Context) error {
	return f.AddTag(ctx, f.tagInput)
}

// ToggleTag associates tag when the contact does not carry it and dissociates it otherwise.
func (f *Form) ToggleTag(ctx context.Context, tag people.Tag) error {
	if f.deleted {
		return ErrDeleted
	}

	if f.contact.HasTag(tag.ID) {
		f.contact.RemoveTag(tag.ID)
		err := people.DetachTag(ctx, f.db, f.contact.ID, tag.ID)
		if err != nil && !errors.Is(err, people.ErrTagNotFound) {
			f.logger.Warn("failed to remove tag", zap.String("tag", tag.Name), zap.Error(err))
			return err
		}
		return nil
	}

	f.contact.AddTag(tag)
	if err := people.AttachTag(ctx, f.db, f.contact.ID, tag.ID); err != nil {
		f.logger.Warn("failed to add tag", zap.String("tag", tag.Name), zap.Error(err))
		return err
	}
	return nil
}

// RequestDeleteTag asks for confirmation before tag is deleted everywhere.
func (f *Form) RequestDeleteTag(tag people.Tag) {
	f.pendingDelete = &tag
}

// PendingDeleteTag returns the tag awaiting confirmation, if any.
func (f *Form) PendingDeleteTag() (people.Tag, bool) {
	if f.pendingDelete == nil {
		return people.Tag{}, false
	}
	return *f.pendingDelete, true
}

// CancelDeleteTag drops a pending deletion request.
func (f *Form) CancelDeleteTag() {
	f.pendingDelete = nil
}

// ConfirmDeleteTag removes the pending tag from this contact and then deletes it globally,
// which removes it from every other contact too. Without a pending request it does nothing.
func (f *Form) ConfirmDeleteTag(ctx context.Context) error {
	if f.pendingDelete == nil {
		return nil
	}
	tag := *f.pendingDelete
	f.pendingDelete = nil

	f.contact.RemoveTag(tag.ID)
	if err := people.DetachTag(ctx, f.db, f.contact.ID, tag.ID); err != nil && !errors.Is(err, people.ErrTagNotFound) {
		f.logger.Warn("failed to remove tag", zap.String("tag", tag.Name), zap.Error(err))
	}

	if err := people.DeleteTag(ctx, f.db, tag.ID); err != nil {
		f.logger.Warn("failed to delete tag", zap.String("tag", tag.Name), zap.Error(err))
		return err
	}
	f.logger.Info("tag deleted", zap.String("tag", tag.Name))
	return nil
}

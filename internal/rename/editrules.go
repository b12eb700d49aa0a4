package rename

import (
	"codenerd/internal/document"
	"codenerd/internal/service"
)

// applyEditRules turns one location's SyntacticRenameName into the
// document.Change list the edit-rule table in spec §4.7 describes.
// Categories string/comment/inactive/unmatched/mismatch yield no
// edits; active-code and selector pieces always go through the
// kind-specific rule below.
func applyEditRules(name service.SyntacticRenameName, oldName, newName CompoundDeclName) []document.Change {
	var changes []document.Change
	for _, piece := range name.Pieces {
		if piece.Category != service.CategoryActiveCode && piece.Category != service.CategorySelector {
			continue
		}
		if text, edit := editForPiece(piece, oldName, newName); edit {
			changes = append(changes, document.Change{Range: piece.Range, Text: text})
		}
	}
	return changes
}

// editForPiece returns (replacementText, true) if piece.Kind requires
// an edit, or ("", false) if the rule is a no-op for this piece.
func editForPiece(piece service.RenamePiece, oldName, newName CompoundDeclName) (string, bool) {
	switch piece.Kind {
	case service.PieceBaseName:
		return newName.BaseName, true

	case service.PieceKeywordBase:
		return "", false

	case service.PieceParameterName:
		oldParam, haveOld := oldName.Param(piece.ParamIdx)
		newParam, haveNew := newName.Param(piece.ParamIdx)
		if !haveNew {
			return "", false
		}
		rangeEmpty := piece.Range.StartLine == piece.Range.EndLine && piece.Range.StartCol == piece.Range.EndCol
		if newParam.IsWildcard && rangeEmpty && haveOld {
			// Promoting the external label to become the internal name.
			return " " + oldParam.Label, true
		}
		if haveOld && !newParam.IsWildcard && newParam.Label == oldParam.Label {
			// The external label now duplicates the existing internal
			// name; delete the now-redundant internal name.
			return "", true
		}
		return "", false

	case service.PieceNoncollapsibleParam:
		return "", false

	case service.PieceDeclArgLabel:
		newParam, haveNew := newName.Param(piece.ParamIdx)
		if !haveNew {
			return "", false
		}
		label := newParam.LabelOrUnderscore()
		rangeEmpty := piece.Range.StartLine == piece.Range.EndLine && piece.Range.StartCol == piece.Range.EndCol
		if rangeEmpty {
			return label + " ", true
		}
		return label, true

	case service.PieceCallArgLabel:
		newParam, haveNew := newName.Param(piece.ParamIdx)
		if !haveNew {
			return "", false
		}
		if newParam.IsWildcard {
			return "", true
		}
		return newParam.Label, true

	case service.PieceCallArgColon:
		newParam, haveNew := newName.Param(piece.ParamIdx)
		if haveNew && newParam.IsWildcard {
			return "", true
		}
		return "", false

	case service.PieceCallArgCombined:
		newParam, haveNew := newName.Param(piece.ParamIdx)
		if !haveNew || newParam.IsWildcard {
			return "", false
		}
		return newParam.Label + ": ", true

	case service.PieceSelectorArgLabel:
		newParam, haveNew := newName.Param(piece.ParamIdx)
		if !haveNew {
			return "", false
		}
		return newParam.LabelOrUnderscore(), true

	default:
		return "", false
	}
}

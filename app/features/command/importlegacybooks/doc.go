// Package importlegacybooks implements reconciling a legacy catalog dump into the catalog.
//
// Each legacy record is one physical copy. Records are grouped by normalized title and every
// group is upserted in one transaction: new titles are inserted, known titles get the copies
// added and their missing author, category and pages filled in.
package importlegacybooks

package mtlcore

// PackResult summarizes a completed pack pass.
type PackResult struct {
	Packed int
	Errors []error
}

// Pack migrates every loose object into the packed tier.
// Each object is packed and removed individually: reading, inserting
// (idempotently), then removing the loose file only after the insert
// commits, so interrupting the pass at any point leaves every object
// findable through one tier or the other.
func Pack(store *ObjectStore) (PackResult, error) {
	ids, err := store.IterLoose()
	if err != nil {
		return PackResult{}, err
	}

	var result PackResult
	for _, id := range ids {
		data, err := store.Get(id)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if err := store.PutPacked(id, data); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if err := store.RemoveLoose(id); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Packed++
	}
	return result, nil
}

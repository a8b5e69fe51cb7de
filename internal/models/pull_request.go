package models

// PullRequest is a pull request under vote. DiffURL is the store key and never
// changes. Key carries the credential used to merge or close the pull request;
// it is persisted in the snapshot but never served, see Public.
type PullRequest struct {
	DiffURL           string `json:"diff_url"`
	Title             string `json:"title"`
	Additions         int    `json:"additions"`
	Deletions         int    `json:"deletions"`
	ChangedFiles      int    `json:"changed_files"`
	Author            string `json:"author"`
	ProfilePicURL     string `json:"profile_pic_url"`
	RepoOwner         string `json:"repo_owner"`
	RepoName          string `json:"repo_name"`
	PRNumber          int    `json:"pr_number"`
	BranchToMerge     string `json:"branch_to_merge"`
	BranchToMergeInto string `json:"branch_to_merge_into"`
	HeadSHA           string `json:"head_sha"`
	Key               string `json:"key,omitempty"`
}

// PublicPullRequest is the read-only projection served to voters
type PublicPullRequest struct {
	DiffURL           string `json:"diff_url"`
	Title             string `json:"title"`
	Additions         int    `json:"additions"`
	Deletions         int    `json:"deletions"`
	ChangedFiles      int    `json:"changed_files"`
	Author            string `json:"author"`
	ProfilePicURL     string `json:"profile_pic_url"`
	RepoOwner         string `json:"repo_owner"`
	RepoName          string `json:"repo_name"`
	PRNumber          int    `json:"pr_number"`
	BranchToMerge     string `json:"branch_to_merge"`
	BranchToMergeInto string `json:"branch_to_merge_into"`
	HeadSHA           string `json:"head_sha"`
}

// Public drops the credential
func (pr *PullRequest) Public() PublicPullRequest {
	return PublicPullRequest{
		DiffURL:           pr.DiffURL,
		Title:             pr.Title,
		Additions:         pr.Additions,
		Deletions:         pr.Deletions,
		ChangedFiles:      pr.ChangedFiles,
		Author:            pr.Author,
		ProfilePicURL:     pr.ProfilePicURL,
		RepoOwner:         pr.RepoOwner,
		RepoName:          pr.RepoName,
		PRNumber:          pr.PRNumber,
		BranchToMerge:     pr.BranchToMerge,
		BranchToMergeInto: pr.BranchToMergeInto,
		HeadSHA:           pr.HeadSHA,
	}
}

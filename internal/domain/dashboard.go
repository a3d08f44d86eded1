package domain

// DashboardStats aggregates account counts for the admin dashboard.
type DashboardStats struct {
	TotalJobSeekers int64 `json:"totalJobSeekers"`
	TotalEmployers  int64 `json:"totalEmployers"`
	TotalAdmins     int64 `json:"totalAdmins"`
	TotalResumes    int64 `json:"totalResumes"`
}

// StatsFromCounts folds a per-role count map and the number of jobseekers with a resume
// into DashboardStats.
func StatsFromCounts(counts map[Role]int64, resumes int64) DashboardStats {
	return DashboardStats{
		TotalJobSeekers: counts[RoleJobSeeker],
		TotalEmployers:  counts[RoleEmployer],
		TotalAdmins:     counts[RoleAdmin],
		TotalResumes:    resumes,
	}
}

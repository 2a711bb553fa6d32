// Package checklist holds the static step template every new ticket is
// seeded with. Pure configuration, not runtime state.
package checklist

type Step struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Steps is the ordered field-operation checklist. Step ids double as the
// per-ticket step_id and define display order.
var Steps = []Step{
	// Job prep
	{ID: 1, Title: "Create Job Ticket", Description: "Create and initialize the job ticket in the system"},
	{ID: 2, Title: "Confirm Job with Client", Description: "Confirm job details, schedule, and expectations with client"},
	{ID: 3, Title: "Collect Site Materials and Contact Information", Description: "Gather all necessary site materials, maps, and contact information"},
	{ID: 4, Title: "Confirm Drone Clearance", Description: "Verify we have proper drone clearance and permissions for the site"},
	{ID: 5, Title: "Complete Equipment Pre-Check", Description: "Pre-check all equipment before heading to site"},

	// Field operations
	{ID: 6, Title: "Final Equipment Check", Description: "Final equipment check on-site before beginning work"},
	{ID: 7, Title: "Communicate with Client", Description: "On-site communication and coordination with client"},
	{ID: 8, Title: "Site Walk", Description: "Walk the site and assess conditions, hazards, and access points"},
	{ID: 9, Title: "EM Locate", Description: "Perform electromagnetic location to identify underground utilities"},
	{ID: 10, Title: "GPR", Description: "Conduct ground penetrating radar survey"},
	{ID: 11, Title: "Rodder", Description: "Complete rodder operations for utility tracing"},
	{ID: 12, Title: "Site Photography", Description: "Capture comprehensive site photographs and documentation"},
	{ID: 13, Title: "Emlid", Description: "Collect Emlid GPS data for precise positioning"},
	{ID: 14, Title: "Drone", Description: "Conduct drone aerial survey and capture footage"},
	{ID: 15, Title: "Site Departure", Description: "Final site check, cleanup, and departure procedures"},

	// Office work
	{ID: 16, Title: "Upload Emlid", Description: "Upload and process Emlid GPS data"},
	{ID: 17, Title: "Upload Drone", Description: "Upload and process drone footage and imagery"},
	{ID: 18, Title: "Close Report", Description: "Complete and finalize the comprehensive site report"},
	{ID: 19, Title: "Publish Report", Description: "Publish and deliver report to client"},
	{ID: 20, Title: "Invoice Job", Description: "Generate and send invoice for completed work"},
}

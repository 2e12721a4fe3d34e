package connectors

import (
	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
)

// Seeded connectors stand in for the real upstream systems during
// development and demos. The fixture data deliberately carries identifiers
// and sensitive subject matter so the full pipeline is exercised end to
// end.

// All returns one seeded connector per source type
func All() map[record.SourceType]*Memory {
	return map[record.SourceType]*Memory{
		record.SourceEmail:         NewMemory(record.SourceEmail, SeedEmails()),
		record.SourceCalendarEvent: NewMemory(record.SourceCalendarEvent, SeedCalendarEvents()),
		record.SourceDocument:      NewMemory(record.SourceDocument, SeedDocuments()),
		record.SourceStakeholder:   NewMemory(record.SourceStakeholder, SeedStakeholders()),
		record.SourcePolicy:        NewMemory(record.SourcePolicy, SeedPolicies()),
	}
}

// SeedEmails returns the fixture mailbox
func SeedEmails() []record.Record {
	return []record.Record{
		{
			ID:         "email-001",
			SourceType: record.SourceEmail,
			RawContent: "Procurement Policy Update - Action Required. Following up on the procurement policy review. Budget allocation of $250k for Q1 has been approved.",
			Metadata: map[string]string{
				"subject":                     "Procurement Policy Update - Action Required",
				"from":                        "john.tan@mof.gov.sg",
				classification.MetaSenderDomain: "mof.gov.sg",
				"date":                        "2025-01-10T09:30:00+08:00",
			},
		},
		{
			ID:         "email-002",
			SourceType: record.SourceEmail,
			RawContent: "Meeting Agenda: Healthcare Financing Review. Attached is the agenda for tomorrow's meeting. Please call me at 91234567 if you have questions.",
			Metadata: map[string]string{
				"subject":                     "Meeting Agenda: Healthcare Financing Review",
				"from":                        "sarah.lee@moh.gov.sg",
				classification.MetaSenderDomain: "moh.gov.sg",
				"date":                        "2025-01-11T14:00:00+08:00",
			},
		},
		{
			ID:         "email-003",
			SourceType: record.SourceEmail,
			RawContent: "Staff Medical Leave Policy Update. Regarding the medical certification for employee S1234567D. The policy has been updated to require 3 days medical leave for minor procedures.",
			Metadata: map[string]string{
				"subject":                     "Staff Medical Leave Policy Update",
				"from":                        "hr@agency.gov.sg",
				classification.MetaSenderDomain: "agency.gov.sg",
				"date":                        "2025-01-09T11:15:00+08:00",
			},
		},
		{
			ID:         "email-004",
			SourceType: record.SourceEmail,
			RawContent: "Vendor Contract Status Update. The contract with Acme Solutions for IT infrastructure is ready for final approval. Value: $500k over 2 years.",
			Metadata: map[string]string{
				"subject":                     "Vendor Contract Status Update",
				"from":                        "procurement@agency.gov.sg",
				classification.MetaSenderDomain: "agency.gov.sg",
				"date":                        "2025-01-08T16:45:00+08:00",
			},
		},
		{
			ID:         "email-005",
			SourceType: record.SourceEmail,
			RawContent: "Public Consultation on Smart Nation 2.0. We are seeking feedback on the Smart Nation 2.0 initiative. Public consultation period ends February 15th.",
			Metadata: map[string]string{
				"subject":                     "Public Consultation on Smart Nation 2.0",
				"from":                        "communications@gov.sg",
				classification.MetaSenderDomain: "gov.sg",
				"date":                        "2025-01-07T08:00:00+08:00",
			},
		},
	}
}

// SeedCalendarEvents returns the fixture calendar
func SeedCalendarEvents() []record.Record {
	return []record.Record{
		{
			ID:         "event-001",
			SourceType: record.SourceCalendarEvent,
			RawContent: "Procurement Policy Review Meeting. Review of updated procurement policy. Budget allocation discussion for Q1 2025.",
			Metadata: map[string]string{
				"title":                      "Procurement Policy Review Meeting",
				"organizer":                  "john.tan@mof.gov.sg",
				classification.MetaAttendees: "john.tan@mof.gov.sg;sarah.lee@moh.gov.sg;you@agency.gov.sg",
				"location":                   "Conference Room A, Level 5",
				"start_time":                 "2025-01-15T14:00:00+08:00",
			},
		},
		{
			ID:         "event-002",
			SourceType: record.SourceCalendarEvent,
			RawContent: "Healthcare Financing Working Group. Cross-agency discussion on healthcare financing model. Contact procurement lead at 92345678 for agenda.",
			Metadata: map[string]string{
				"title":                      "Healthcare Financing Working Group",
				"organizer":                  "david.chen@moh.gov.sg",
				classification.MetaAttendees: "david.chen@moh.gov.sg;john.tan@mof.gov.sg;you@agency.gov.sg",
				"location":                   "Virtual Meeting (Zoom)",
				"start_time":                 "2025-01-16T10:00:00+08:00",
			},
		},
		{
			ID:         "event-003",
			SourceType: record.SourceCalendarEvent,
			RawContent: "Staff Town Hall - Smart Nation Update. Monthly town hall to update staff on Smart Nation 2.0 progress. Open to all government officers.",
			Metadata: map[string]string{
				"title":                      "Staff Town Hall - Smart Nation Update",
				"organizer":                  "comm@gov.sg",
				classification.MetaAttendees: "comm@gov.sg",
				"location":                   "Auditorium, Level 2",
				"start_time":                 "2025-01-17T15:00:00+08:00",
			},
		},
		{
			ID:         "event-004",
			SourceType: record.SourceCalendarEvent,
			RawContent: "Vendor Evaluation Session. Evaluation of vendor proposals for IT infrastructure upgrade. Contract value up to $750k.",
			Metadata: map[string]string{
				"title":                      "Vendor Evaluation Session",
				"organizer":                  "procurement@agency.gov.sg",
				classification.MetaAttendees: "procurement@agency.gov.sg;you@agency.gov.sg",
				"location":                   "Meeting Room B",
				"start_time":                 "2025-01-14T09:00:00+08:00",
			},
		},
	}
}

// SeedDocuments returns the fixture document store
func SeedDocuments() []record.Record {
	return []record.Record{
		{
			ID:         "doc-001",
			SourceType: record.SourceDocument,
			RawContent: "Procurement Policy 2024 - Final Version. This policy establishes guidelines for government procurement processes. Section 4.2 covers vendor evaluation criteria including sustainability metrics.",
			Metadata: map[string]string{
				"title":                    "Procurement Policy 2024 - Final Version",
				classification.MetaFolderPath: "/Policies/Procurement/",
				"owner":                    "Procurement Division, MOF",
				"file_type":                "PDF",
				"url":                      "https://drive.gov.sg/procurement-policy-2024",
			},
		},
		{
			ID:         "doc-002",
			SourceType: record.SourceDocument,
			RawContent: "Healthcare Financing Model Proposal. Proposal for restructuring healthcare financing to improve cost efficiency. Includes budget impact analysis for S$2.5B annual healthcare expenditure.",
			Metadata: map[string]string{
				"title":                    "Healthcare Financing Model Proposal",
				classification.MetaFolderPath: "/Proposals/Healthcare/",
				"owner":                    "Healthcare Policy Division, MOH",
				"file_type":                "DOCX",
				"url":                      "https://drive.gov.sg/healthcare-financing-proposal",
			},
		},
		{
			ID:         "doc-003",
			SourceType: record.SourceDocument,
			RawContent: "Smart Nation 2.0 Implementation Roadmap. Comprehensive roadmap for Smart Nation 2.0 implementation. Covers digital infrastructure upgrades and citizen engagement initiatives.",
			Metadata: map[string]string{
				"title":                    "Smart Nation 2.0 Implementation Roadmap",
				classification.MetaFolderPath: "/Strategy/Smart Nation/",
				"owner":                    "Smart Nation Office",
				"file_type":                "PPTX",
				"url":                      "https://drive.gov.sg/smart-nation-roadmap",
			},
		},
		{
			ID:         "doc-004",
			SourceType: record.SourceDocument,
			RawContent: "Vendor Evaluation Criteria - IT Infrastructure. Detailed criteria for evaluating IT infrastructure vendors. Includes technical requirements, compliance checks, and cost-benefit analysis framework.",
			Metadata: map[string]string{
				"title":                    "Vendor Evaluation Criteria - IT Infrastructure",
				classification.MetaFolderPath: "/Procurement/IT/",
				"owner":                    "IT Procurement Team",
				"file_type":                "XLSX",
				"url":                      "https://drive.gov.sg/vendor-evaluation-it",
			},
		},
		{
			ID:         "doc-005",
			SourceType: record.SourceDocument,
			RawContent: "Staff Town Hall Presentation - Q4 2024. Presentation materials for quarterly staff town hall. Includes updates on ongoing projects, organizational changes, and upcoming initiatives.",
			Metadata: map[string]string{
				"title":                    "Staff Town Hall Presentation - Q4 2024",
				classification.MetaFolderPath: "/Communications/Town Halls/",
				"owner":                    "Communications Division",
				"file_type":                "PPTX",
				"url":                      "https://drive.gov.sg/town-hall-q4-2024",
			},
		},
	}
}

// SeedStakeholders returns the fixture stakeholder directory
func SeedStakeholders() []record.Record {
	return []record.Record{
		{
			ID:         "stakeholder-001",
			SourceType: record.SourceStakeholder,
			RawContent: "John Tan, Director, Procurement Division, Ministry of Finance. Reports to Deputy Director of Finance, oversees $2.5B annual procurement budget. Prefers data-driven discussions, brings detailed cost-benefit analyses to meetings. Recent: sent procurement policy update requiring budget approval; discussed vendor evaluation criteria changes.",
			Metadata: map[string]string{
				"name":         "John Tan",
				"email":        "john.tan@mof.gov.sg",
				"organization": "Ministry of Finance",
				"department":   "Public Sector Procurement",
			},
		},
		{
			ID:         "stakeholder-002",
			SourceType: record.SourceStakeholder,
			RawContent: "Sarah Lee, Deputy Director, Healthcare Financing, Ministry of Health. Leads healthcare financing policy development, coordinates with MOF on budgets. Focuses on long-term policy implications, prefers advance preparation of materials. Recent: shared healthcare financing meeting agenda; cross-agency healthcare financing working group.",
			Metadata: map[string]string{
				"name":         "Sarah Lee",
				"email":        "sarah.lee@moh.gov.sg",
				"organization": "Ministry of Health",
				"department":   "Healthcare Policy & Financing",
			},
		},
		{
			ID:         "stakeholder-003",
			SourceType: record.SourceStakeholder,
			RawContent: "David Chen, Senior Manager, Healthcare Systems, Ministry of Health. Manages digital transformation initiatives, oversees vendor contracts for health tech. Technical focus on system implementation, prefers detailed technical specifications. Recent: discussed IT infrastructure requirements for healthcare systems.",
			Metadata: map[string]string{
				"name":         "David Chen",
				"email":        "david.chen@moh.gov.sg",
				"organization": "Ministry of Health",
				"department":   "Digital Health Division",
			},
		},
	}
}

// SeedPolicies returns the fixture policy repository
func SeedPolicies() []record.Record {
	return []record.Record{
		{
			ID:         "policy-001",
			SourceType: record.SourcePolicy,
			RawContent: "Government Procurement Policy 2024. Establishes guidelines for government procurement processes, including vendor evaluation criteria, contract approval thresholds, and sustainability requirements. Section 4.2: vendors must demonstrate compliance with sustainability standards and provide cost-benefit analysis for contracts exceeding S$250,000. Section 6.1: contracts above S$750,000 require deputy director approval.",
			Metadata: map[string]string{
				"title":         "Government Procurement Policy 2024",
				"policy_number": "FIN-PROC-2024-001",
				"policy_type":   "procurement",
				"ministry":      "Ministry of Finance",
				"url":           "https://policies.gov.sg/procurement-2024",
			},
		},
		{
			ID:         "policy-002",
			SourceType: record.SourcePolicy,
			RawContent: "Healthcare Financing Framework. Framework for healthcare financing and cost management, including subsidy structures, co-payment mechanisms, and budget allocation guidelines. Section 2.3: citizens with monthly household income below S$3,000 qualify for full subsidies. Section 5.2: healthcare expenditure not to exceed 4.5% of GDP; S$2.5B allocated for FY2025 preventive care initiatives.",
			Metadata: map[string]string{
				"title":         "Healthcare Financing Framework",
				"policy_number": "MOH-HC-2024-002",
				"policy_type":   "healthcare",
				"ministry":      "Ministry of Health",
				"url":           "https://policies.gov.sg/healthcare-financing",
			},
		},
		{
			ID:         "policy-003",
			SourceType: record.SourcePolicy,
			RawContent: "Digital Government Security Policy. Comprehensive security framework for digital government services, including data classification, access controls, and incident response procedures. Section 3.1: four classification levels, all data must be labeled. Section 7.4: all system access must be logged; audit logs retained for minimum 7 years.",
			Metadata: map[string]string{
				"title":         "Digital Government Security Policy",
				"policy_number": "SNDGO-SEC-2024-003",
				"policy_type":   "security",
				"ministry":      "Smart Nation and Digital Government Office",
				"url":           "https://policies.gov.sg/digital-security",
			},
		},
		{
			ID:         "policy-004",
			SourceType: record.SourcePolicy,
			RawContent: "Human Resource Management Policy. HR policies covering recruitment, performance management, leave entitlements, and workplace conduct standards for public officers. Section 8.2: officers receive 14 days medical leave annually, certification from government panel clinics required for leaves exceeding 3 days. Section 12.1: annual performance reviews mandatory.",
			Metadata: map[string]string{
				"title":         "Human Resource Management Policy",
				"policy_number": "PSD-HR-2024-004",
				"policy_type":   "hr",
				"ministry":      "Public Service Division",
				"url":           "https://policies.gov.sg/hr-management",
			},
		},
		{
			ID:         "policy-005",
			SourceType: record.SourcePolicy,
			RawContent: "Smart Nation 2.0 Implementation Guidelines. Implementation guidelines for Smart Nation 2.0 initiatives, including digital infrastructure development and citizen engagement frameworks. Section 1.4: achieve 100% digital government services by 2027. Section 9.3: strategic partnerships with technology vendors encouraged.",
			Metadata: map[string]string{
				"title":         "Smart Nation 2.0 Implementation Guidelines",
				"policy_number": "SNDGO-SN2-2024-005",
				"policy_type":   "digital",
				"ministry":      "Smart Nation and Digital Government Office",
				"url":           "https://policies.gov.sg/smart-nation-2",
			},
		},
	}
}

package template

// Word lists backing the faker vocabulary.

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Carlos", "Nancy", "Daniel",
	"Lisa", "Mateo", "Amara", "Wei", "Priya", "Yuki", "Fatima", "Liam",
	"Sofia", "Noah", "Olivia", "Ethan", "Ava", "Lucas", "Mia",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	"Lee", "Thompson", "White", "Harris", "Sanchez", "Clark", "Nguyen",
	"Patel", "Kim", "Chen", "Singh", "Okafor", "Tanaka", "Kowalski",
}

var emailDomains = []string{
	"example.com", "example.org", "example.net", "test.dev", "mail.test",
}

var companyNames = []string{
	"Acme Corp", "Globex", "Initech", "Umbrella Industries", "Stark Labs",
	"Wayne Enterprises", "Hooli", "Vandelay Industries", "Wonka Works",
	"Cyberdyne Systems", "Aperture Science", "Tyrell Corp", "Soylent Co",
	"Pied Piper", "Massive Dynamic",
}

var jobTitles = []string{
	"Software Engineer", "Product Manager", "Designer", "Data Analyst",
	"DevOps Engineer", "QA Engineer", "Engineering Manager", "CTO",
	"Support Specialist", "Account Executive", "Marketing Lead",
	"Technical Writer", "Solutions Architect", "Site Reliability Engineer",
}

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua", "enim", "ad", "minim", "veniam",
	"quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi",
	"aliquip", "ex", "ea", "commodo", "consequat", "duis", "aute", "irure",
	"in", "reprehenderit", "voluptate", "velit", "esse", "cillum", "fugiat",
	"nulla", "pariatur", "excepteur", "sint", "occaecat", "cupidatat",
	"non", "proident", "sunt", "culpa", "qui", "officia", "deserunt",
	"mollit", "anim", "id", "est", "laborum",
}
